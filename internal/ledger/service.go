package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesaflow/sacco-api/internal/models"
	"github.com/pesaflow/sacco-api/internal/store"
)

// Service is the transaction lifecycle controller. Every savings
// mutation in the system goes through it, and each operation runs as
// one store update transaction so reconciliation and persistence
// commit or roll back together.
type Service struct {
	store *store.Store
}

// NewService creates a ledger Service.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// CreateTransaction creates a ledger entry for an existing member
// account. If the initial status is completed, the savings effect is
// applied in the same store transaction; a failed apply leaves no
// transaction behind.
func (s *Service) CreateTransaction(req *models.CreateTransactionRequest) (*models.Transaction, error) {
	memberNumber := models.NormalizeMemberNumber(req.MemberNumber)
	if memberNumber == "" {
		return nil, fmt.Errorf("%w: memberNumber is required", ErrValidation)
	}
	if !models.ValidTransactionType(req.Type) {
		return nil, fmt.Errorf("%w: %q is not a valid transaction type", ErrValidation, req.Type)
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	}
	status := models.StatusPending
	if req.Status != nil {
		if !models.ValidTransactionStatus(*req.Status) {
			return nil, fmt.Errorf("%w: %q is not a valid transaction status", ErrValidation, *req.Status)
		}
		status = *req.Status
	}
	category := models.CategorySavings
	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			return nil, fmt.Errorf("%w: %q is not a valid category", ErrValidation, *req.Category)
		}
		category = *req.Category
	}
	if len(req.Description) > models.MaxDescriptionLen {
		return nil, fmt.Errorf("%w: description cannot exceed %d characters", ErrValidation, models.MaxDescriptionLen)
	}

	transactionID := models.NormalizeTransactionID(req.TransactionID)
	if transactionID == "" {
		transactionID = models.GenerateTransactionID()
	}

	now := time.Now()
	date := now
	if req.Date != nil {
		date = *req.Date
	}

	txn := &models.Transaction{
		TransactionID: transactionID,
		MemberNumber:  memberNumber,
		Date:          date,
		Type:          req.Type,
		Amount:        amount,
		Status:        status,
		ConfirmedBy:   req.ConfirmedBy,
		Description:   req.Description,
		Reference:     req.Reference,
		Category:      category,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.store.Update(func(t *store.Txn) error {
		if _, err := t.GetUser(memberNumber); err != nil {
			return fmt.Errorf("user %s: %w", memberNumber, err)
		}
		account, err := t.GetAccount(memberNumber)
		if err != nil {
			return fmt.Errorf("account %s: %w", memberNumber, err)
		}

		exists, err := t.TransactionExists(transactionID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicateTransaction, transactionID)
		}

		if status == models.StatusCompleted {
			if err := applyEffect(account, txn.Type, txn.Amount, Apply); err != nil {
				return err
			}
			if err := t.PutAccount(account); err != nil {
				return err
			}
		}
		txn.AccountBalance = account.Savings

		return t.PutTransaction(txn)
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// UpdateTransaction partially updates a transaction and reconciles the
// account: the old effect is reversed if the transaction was completed,
// the new effect applied if it still is. Both steps and the record
// write share one store transaction, so a failure rolls everything
// back and no intermediate balance is ever visible.
func (s *Service) UpdateTransaction(transactionID string, req *models.UpdateTransactionRequest) (*models.Transaction, error) {
	transactionID = models.NormalizeTransactionID(transactionID)

	if req.Type != nil && !models.ValidTransactionType(*req.Type) {
		return nil, fmt.Errorf("%w: %q is not a valid transaction type", ErrValidation, *req.Type)
	}
	if req.Status != nil && !models.ValidTransactionStatus(*req.Status) {
		return nil, fmt.Errorf("%w: %q is not a valid transaction status", ErrValidation, *req.Status)
	}
	if req.Category != nil && !models.ValidCategory(*req.Category) {
		return nil, fmt.Errorf("%w: %q is not a valid category", ErrValidation, *req.Category)
	}
	if req.Amount != nil && !req.Amount.Round(2).IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	}
	if req.Description != nil && len(*req.Description) > models.MaxDescriptionLen {
		return nil, fmt.Errorf("%w: description cannot exceed %d characters", ErrValidation, models.MaxDescriptionLen)
	}

	var updated *models.Transaction
	err := s.store.Update(func(t *store.Txn) error {
		txn, err := t.GetTransaction(transactionID)
		if err != nil {
			return fmt.Errorf("transaction %s: %w", transactionID, err)
		}

		oldStatus, oldType, oldAmount := txn.Status, txn.Type, txn.Amount

		if req.MemberNumber != nil {
			txn.MemberNumber = models.NormalizeMemberNumber(*req.MemberNumber)
		}
		if req.Date != nil {
			txn.Date = *req.Date
		}
		if req.Type != nil {
			txn.Type = *req.Type
		}
		if req.Amount != nil {
			txn.Amount = req.Amount.Round(2)
		}
		if req.Status != nil {
			txn.Status = *req.Status
		}
		if req.ConfirmedBy != nil {
			txn.ConfirmedBy = *req.ConfirmedBy
		}
		if req.Description != nil {
			txn.Description = *req.Description
		}
		if req.Reference != nil {
			txn.Reference = *req.Reference
		}
		if req.Category != nil {
			txn.Category = *req.Category
		}
		txn.UpdatedAt = time.Now()

		account, err := t.GetAccount(txn.MemberNumber)
		if err != nil {
			return fmt.Errorf("account %s: %w", txn.MemberNumber, err)
		}

		reconciled := false
		if oldStatus == models.StatusCompleted {
			if err := applyEffect(account, oldType, oldAmount, Reverse); err != nil {
				return err
			}
			reconciled = true
		}
		if txn.Status == models.StatusCompleted {
			if err := applyEffect(account, txn.Type, txn.Amount, Apply); err != nil {
				return err
			}
			reconciled = true
		}
		if reconciled {
			txn.AccountBalance = account.Savings
			if err := t.PutAccount(account); err != nil {
				return err
			}
		}

		updated = txn
		return t.PutTransaction(txn)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// CompleteTransaction applies the transaction's effect and marks it
// completed. Completing twice is rejected; on ErrInsufficientFunds the
// transaction stays pending and the balance is unchanged.
func (s *Service) CompleteTransaction(transactionID, confirmedBy string) (*models.Transaction, error) {
	transactionID = models.NormalizeTransactionID(transactionID)

	var completed *models.Transaction
	err := s.store.Update(func(t *store.Txn) error {
		txn, err := t.GetTransaction(transactionID)
		if err != nil {
			return fmt.Errorf("transaction %s: %w", transactionID, err)
		}
		if txn.Status == models.StatusCompleted {
			return fmt.Errorf("%w: %s", ErrAlreadyCompleted, transactionID)
		}

		account, err := t.GetAccount(txn.MemberNumber)
		if err != nil {
			return fmt.Errorf("account %s: %w", txn.MemberNumber, err)
		}

		if err := applyEffect(account, txn.Type, txn.Amount, Apply); err != nil {
			return err
		}
		if err := t.PutAccount(account); err != nil {
			return err
		}

		txn.Status = models.StatusCompleted
		txn.ConfirmedBy = confirmedBy
		txn.AccountBalance = account.Savings
		txn.UpdatedAt = time.Now()

		completed = txn
		return t.PutTransaction(txn)
	})
	if err != nil {
		return nil, err
	}

	return completed, nil
}

// DeleteTransaction removes a transaction. A completed transaction has
// its effect reversed first; if the reversal fails the transaction is
// kept and the ledger stays consistent.
func (s *Service) DeleteTransaction(transactionID string) (*models.Transaction, error) {
	transactionID = models.NormalizeTransactionID(transactionID)

	var deleted *models.Transaction
	err := s.store.Update(func(t *store.Txn) error {
		txn, err := t.GetTransaction(transactionID)
		if err != nil {
			return fmt.Errorf("transaction %s: %w", transactionID, err)
		}

		if txn.Status == models.StatusCompleted {
			account, err := t.GetAccount(txn.MemberNumber)
			if err != nil {
				return fmt.Errorf("account %s: %w", txn.MemberNumber, err)
			}
			if err := applyEffect(account, txn.Type, txn.Amount, Reverse); err != nil {
				return err
			}
			if err := t.PutAccount(account); err != nil {
				return err
			}
		}

		deleted = txn
		return t.DeleteTransaction(transactionID)
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// AdjustBalance is the direct manual reconciliation entry point used
// by PATCH /api/accounts/{id}/balance. It shares the effect primitive
// with the transaction lifecycle so there is exactly one code path
// that changes savings.
func (s *Service) AdjustBalance(memberNumber string, amount decimal.Decimal, kind string) (*models.Account, error) {
	memberNumber = models.NormalizeMemberNumber(memberNumber)
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	}

	var class EffectClass
	switch kind {
	case "credit":
		class = ClassCredit
	case "debit":
		class = ClassDebit
	default:
		return nil, fmt.Errorf("%w: type must be credit or debit", ErrValidation)
	}

	var account *models.Account
	err := s.store.Update(func(t *store.Txn) error {
		var err error
		account, err = t.GetAccount(memberNumber)
		if err != nil {
			return fmt.Errorf("account %s: %w", memberNumber, err)
		}
		if err := applyClass(account, class, amount); err != nil {
			return err
		}
		return t.PutAccount(account)
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}
