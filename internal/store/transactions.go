package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesaflow/sacco-api/internal/models"
)

// GetTransaction retrieves a transaction by ID within the transaction.
func (t *Txn) GetTransaction(transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := t.get(BucketTransactions, transactionID, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// PutTransaction stores a transaction keyed by its ID.
func (t *Txn) PutTransaction(txn *models.Transaction) error {
	return t.put(BucketTransactions, txn.TransactionID, txn)
}

// DeleteTransaction removes a transaction by ID.
func (t *Txn) DeleteTransaction(transactionID string) error {
	return t.delete(BucketTransactions, transactionID)
}

// TransactionExists reports whether a transaction with the ID exists.
func (t *Txn) TransactionExists(transactionID string) (bool, error) {
	return t.exists(BucketTransactions, transactionID)
}

// GetTransaction retrieves a transaction by ID.
func (s *Store) GetTransaction(transactionID string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.View(func(t *Txn) error {
		var err error
		txn, err = t.GetTransaction(transactionID)
		return err
	})
	return txn, err
}

// TransactionFilter narrows ListTransactions results. Zero values
// match everything.
type TransactionFilter struct {
	MemberNumber string
	Status       models.TransactionStatus
	Type         models.TransactionType
	StartDate    *time.Time
	EndDate      *time.Time
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
}

func (f TransactionFilter) matches(txn *models.Transaction) bool {
	if f.MemberNumber != "" && txn.MemberNumber != f.MemberNumber {
		return false
	}
	if f.Status != "" && txn.Status != f.Status {
		return false
	}
	if f.Type != "" && txn.Type != f.Type {
		return false
	}
	if f.StartDate != nil && txn.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && txn.Date.After(*f.EndDate) {
		return false
	}
	if f.MinAmount != nil && txn.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && txn.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}

// ListTransactions retrieves all transactions matching the filter,
// newest first.
func (s *Store) ListTransactions(filter TransactionFilter) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	err := s.View(func(t *Txn) error {
		return t.forEach(BucketTransactions, func(data []byte) error {
			var txn models.Transaction
			if err := json.Unmarshal(data, &txn); err != nil {
				return fmt.Errorf("failed to unmarshal transaction: %w", err)
			}
			if filter.matches(&txn) {
				txns = append(txns, &txn)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(txns, func(i, j int) bool {
		return txns[i].Date.After(txns[j].Date)
	})

	return txns, nil
}
