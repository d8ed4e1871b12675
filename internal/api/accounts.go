package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pesaflow/sacco-api/internal/ledger"
	"github.com/pesaflow/sacco-api/internal/models"
	"github.com/pesaflow/sacco-api/internal/store"
)

// AccountsHandler handles member account endpoints.
type AccountsHandler struct {
	store  *store.Store
	ledger *ledger.Service
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(st *store.Store, svc *ledger.Service) *AccountsHandler {
	return &AccountsHandler{store: st, ledger: svc}
}

// AccountSummary aggregates balances over a set of accounts.
type AccountSummary struct {
	TotalSavings       decimal.Decimal `json:"totalSavings"`
	TotalShares        decimal.Decimal `json:"totalShares"`
	TotalContributions decimal.Decimal `json:"totalContributions"`
	ActiveAccounts     int             `json:"activeAccounts"`
}

func summarizeAccounts(accounts []*models.Account) AccountSummary {
	var s AccountSummary
	s.TotalSavings = decimal.Zero
	s.TotalShares = decimal.Zero
	s.TotalContributions = decimal.Zero
	for _, a := range accounts {
		s.TotalSavings = s.TotalSavings.Add(a.Savings)
		s.TotalShares = s.TotalShares.Add(a.SharesOwned)
		s.TotalContributions = s.TotalContributions.Add(a.MonthlyContribution)
		if a.AccountStatus == models.AccountActive {
			s.ActiveAccounts++
		}
	}
	return s
}

// List handles GET /api/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.AccountFilter{
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := models.AccountStatus(v)
		if !models.ValidAccountStatus(status) {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "Invalid account status")
			return
		}
		filter.Status = status
	}

	accounts, err := h.store.ListAccounts(filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].MemberNumber < accounts[j].MemberNumber
	})

	page, limit := parsePagination(r)
	pageAccounts, totalPages := paginate(accounts, page, limit)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts":      pageAccounts,
		"totalAccounts": len(accounts),
		"currentPage":   page,
		"totalPages":    totalPages,
		"summary":       summarizeAccounts(accounts),
	})
}

// Get handles GET /api/accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "id"))

	account, err := h.store.GetAccount(memberNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Create handles POST /api/accounts. The member's user record must
// already exist.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}

	memberNumber := models.NormalizeMemberNumber(req.MemberNumber)
	if memberNumber == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Member number is required")
		return
	}

	status := models.AccountPending
	if req.AccountStatus != nil {
		if !models.ValidAccountStatus(*req.AccountStatus) {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "Invalid account status")
			return
		}
		status = *req.AccountStatus
	}

	now := time.Now()
	account := &models.Account{
		MemberNumber:        memberNumber,
		Savings:             decimal.Zero,
		MonthlyContribution: decimal.Zero,
		SharesOwned:         decimal.Zero,
		AccountStatus:       status,
		AccountOpenDate:     now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.Savings != nil {
		if req.Savings.IsNegative() {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "Savings cannot be negative")
			return
		}
		account.Savings = req.Savings.Round(2)
	}
	if req.MonthlyContribution != nil {
		if req.MonthlyContribution.IsNegative() {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "Monthly contribution cannot be negative")
			return
		}
		account.MonthlyContribution = req.MonthlyContribution.Round(2)
	}
	if req.SharesOwned != nil {
		if req.SharesOwned.IsNegative() {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "Shares owned cannot be negative")
			return
		}
		account.SharesOwned = req.SharesOwned.Round(2)
	}
	if req.Notes != nil {
		account.Notes = *req.Notes
	}

	err := h.store.Update(func(t *store.Txn) error {
		if _, err := t.GetUser(memberNumber); err != nil {
			return err
		}
		exists, err := t.AccountExists(memberNumber)
		if err != nil {
			return err
		}
		if exists {
			return errAccountExists
		}
		return t.PutAccount(account)
	})
	if err == errAccountExists {
		writeJSONError(w, http.StatusConflict, "conflict", "Account already exists")
		return
	}
	if err == store.ErrNotFound {
		writeJSONError(w, http.StatusNotFound, "not_found", "User not found for member number")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// Update handles PUT /api/accounts/{id}. Savings is not accepted here;
// balance changes go through the ledger endpoints.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "id"))

	var req models.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}

	if req.AccountStatus != nil && !models.ValidAccountStatus(*req.AccountStatus) {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Invalid account status")
		return
	}
	if req.MonthlyContribution != nil && req.MonthlyContribution.IsNegative() {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Monthly contribution cannot be negative")
		return
	}
	if req.SharesOwned != nil && req.SharesOwned.IsNegative() {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Shares owned cannot be negative")
		return
	}

	var account *models.Account
	err := h.store.Update(func(t *store.Txn) error {
		var err error
		account, err = t.GetAccount(memberNumber)
		if err != nil {
			return err
		}

		if req.MonthlyContribution != nil {
			account.MonthlyContribution = req.MonthlyContribution.Round(2)
		}
		if req.SharesOwned != nil {
			account.SharesOwned = req.SharesOwned.Round(2)
		}
		if req.AccountStatus != nil {
			account.AccountStatus = *req.AccountStatus
		}
		if req.Notes != nil {
			account.Notes = *req.Notes
		}
		account.UpdatedAt = time.Now()

		return t.PutAccount(account)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Delete handles DELETE /api/accounts/{id}.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "id"))

	account, err := h.store.GetAccount(memberNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.store.DeleteAccount(memberNumber); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Account deleted",
		"account": account,
	})
}

// Balance handles PATCH /api/accounts/{id}/balance, the manual
// credit/debit entry point.
// @Summary Adjust account balance
// @Description Apply a manual credit or debit to an account's savings
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "Member number"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/accounts/{id}/balance [patch]
// @Security BearerAuth
func (h *AccountsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "id"))

	var req models.AdjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}

	account, err := h.ledger.AdjustBalance(memberNumber, req.Amount, req.Type)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Balance updated",
		"account":    account,
		"newBalance": account.Savings,
	})
}

// Summary handles GET /api/accounts/{id}/summary.
func (h *AccountsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "id"))

	account, err := h.store.GetAccount(memberNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	user, err := h.store.GetUser(memberNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	lastActivity := account.AccountOpenDate
	if account.LastTransactionDate != nil {
		lastActivity = *account.LastTransactionDate
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":      account,
		"user":         user,
		"totalValue":   account.TotalValue(),
		"accountAge":   int(time.Since(account.AccountOpenDate).Hours() / 24),
		"lastActivity": lastActivity,
	})
}

// errAccountExists signals a duplicate account inside a store update.
var errAccountExists = errors.New("account already exists")
