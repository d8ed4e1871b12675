package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pesaflow/sacco-api/internal/ledger"
	"github.com/pesaflow/sacco-api/internal/models"
	"github.com/pesaflow/sacco-api/internal/store"
)

// TransactionsHandler handles ledger entry endpoints.
type TransactionsHandler struct {
	store  *store.Store
	ledger *ledger.Service
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(st *store.Store, svc *ledger.Service) *TransactionsHandler {
	return &TransactionsHandler{store: st, ledger: svc}
}

// TransactionSummary aggregates a transaction listing.
type TransactionSummary struct {
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	CompletedTransactions int             `json:"completedTransactions"`
	PendingTransactions   int             `json:"pendingTransactions"`
	TotalDeposits         decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals      decimal.Decimal `json:"totalWithdrawals"`
}

func summarizeTransactions(txns []*models.Transaction) TransactionSummary {
	s := TransactionSummary{
		TotalAmount:      decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
	}
	for _, txn := range txns {
		s.TotalAmount = s.TotalAmount.Add(txn.Amount)
		switch txn.Status {
		case models.StatusCompleted:
			s.CompletedTransactions++
		case models.StatusPending:
			s.PendingTransactions++
		}
		switch txn.Type {
		case models.TypeDeposit:
			s.TotalDeposits = s.TotalDeposits.Add(txn.Amount)
		case models.TypeWithdrawal:
			s.TotalWithdrawals = s.TotalWithdrawals.Add(txn.Amount)
		}
	}
	return s
}

// parseTransactionFilter reads the shared listing query parameters.
func parseTransactionFilter(r *http.Request) (store.TransactionFilter, string) {
	q := r.URL.Query()
	filter := store.TransactionFilter{
		MemberNumber: models.NormalizeMemberNumber(q.Get("memberNumber")),
		Status:       models.TransactionStatus(q.Get("status")),
		Type:         models.TransactionType(q.Get("type")),
	}

	if filter.Status != "" && !models.ValidTransactionStatus(filter.Status) {
		return filter, "Invalid status"
	}
	if filter.Type != "" && !models.ValidTransactionType(filter.Type) {
		return filter, "Invalid type"
	}

	if v := q.Get("startDate"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			ts, err = time.Parse("2006-01-02", v)
		}
		if err != nil {
			return filter, "Invalid startDate"
		}
		filter.StartDate = &ts
	}
	if v := q.Get("endDate"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			ts, err = time.Parse("2006-01-02", v)
			if err == nil {
				// Date-only upper bounds include the whole day.
				ts = ts.Add(24*time.Hour - time.Nanosecond)
			}
		}
		if err != nil {
			return filter, "Invalid endDate"
		}
		filter.EndDate = &ts
	}
	if v := q.Get("minAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, "Invalid minAmount"
		}
		filter.MinAmount = &d
	}
	if v := q.Get("maxAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, "Invalid maxAmount"
		}
		filter.MaxAmount = &d
	}

	return filter, ""
}

// Create handles POST /api/transactions.
// @Summary Create transaction
// @Description Create a ledger entry; a completed status applies the balance effect immediately
// @Tags transactions
// @Accept json
// @Produce json
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/transactions [post]
// @Security BearerAuth
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}

	txn, err := h.ledger.CreateTransaction(&req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, badParam := parseTransactionFilter(r)
	if badParam != "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", badParam)
		return
	}

	txns, err := h.store.ListTransactions(filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	page, limit := parsePagination(r)
	pageTxns, totalPages := paginate(txns, page, limit)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions":      pageTxns,
		"totalTransactions": len(txns),
		"currentPage":       page,
		"totalPages":        totalPages,
		"summary":           summarizeTransactions(txns),
	})
}

// Get handles GET /api/transactions/{id}. Non-admin callers may only
// read their own transactions.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	transactionID := models.NormalizeTransactionID(chi.URLParam(r, "id"))

	txn, err := h.store.GetTransaction(transactionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	user := userFrom(r)
	if user.Role != models.RoleAdmin && user.MemberNumber != txn.MemberNumber {
		writeJSONError(w, http.StatusForbidden, "forbidden", "You can only access your own data")
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// Update handles PUT /api/transactions/{id}.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")

	var req models.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}

	txn, err := h.ledger.UpdateTransaction(transactionID, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// Complete handles PATCH /api/transactions/{id}/complete.
func (h *TransactionsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")

	var req models.CompleteTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}
	if req.ConfirmedBy == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "confirmedBy is required")
		return
	}

	txn, err := h.ledger.CompleteTransaction(transactionID, req.ConfirmedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":           "Transaction completed",
		"transaction":       txn,
		"newAccountBalance": txn.AccountBalance,
	})
}

// Delete handles DELETE /api/transactions/{id}. Completed transactions
// are reversed against the account before removal.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")

	txn, err := h.ledger.DeleteTransaction(transactionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Transaction deleted",
		"transaction": txn,
	})
}

// ListByMember handles GET /api/transactions/member/{memberNumber}.
func (h *TransactionsHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "memberNumber"))

	filter, badParam := parseTransactionFilter(r)
	if badParam != "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", badParam)
		return
	}
	filter.MemberNumber = memberNumber

	txns, err := h.store.ListTransactions(filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	page, limit := parsePagination(r)
	pageTxns, totalPages := paginate(txns, page, limit)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions":      pageTxns,
		"totalTransactions": len(txns),
		"currentPage":       page,
		"totalPages":        totalPages,
	})
}
