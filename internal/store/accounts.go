package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pesaflow/sacco-api/internal/models"
)

// GetAccount retrieves an account by member number within the transaction.
func (t *Txn) GetAccount(memberNumber string) (*models.Account, error) {
	var account models.Account
	if err := t.get(BucketAccounts, memberNumber, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// PutAccount stores an account keyed by its member number.
func (t *Txn) PutAccount(account *models.Account) error {
	return t.put(BucketAccounts, account.MemberNumber, account)
}

// DeleteAccount removes an account by member number.
func (t *Txn) DeleteAccount(memberNumber string) error {
	return t.delete(BucketAccounts, memberNumber)
}

// AccountExists reports whether an account with the member number exists.
func (t *Txn) AccountExists(memberNumber string) (bool, error) {
	return t.exists(BucketAccounts, memberNumber)
}

// GetAccount retrieves an account by member number.
func (s *Store) GetAccount(memberNumber string) (*models.Account, error) {
	var account *models.Account
	err := s.View(func(t *Txn) error {
		var err error
		account, err = t.GetAccount(memberNumber)
		return err
	})
	return account, err
}

// PutAccount stores an account keyed by its member number.
func (s *Store) PutAccount(account *models.Account) error {
	return s.Update(func(t *Txn) error {
		return t.PutAccount(account)
	})
}

// DeleteAccount removes an account by member number.
func (s *Store) DeleteAccount(memberNumber string) error {
	return s.Update(func(t *Txn) error {
		return t.DeleteAccount(memberNumber)
	})
}

// AccountFilter narrows ListAccounts results. Zero values match everything.
type AccountFilter struct {
	Status models.AccountStatus
	Search string // matches member number, case-insensitive
}

func (f AccountFilter) matches(account *models.Account) bool {
	if f.Status != "" && account.AccountStatus != f.Status {
		return false
	}
	if f.Search != "" && !strings.Contains(
		strings.ToLower(account.MemberNumber), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// ListAccounts retrieves all accounts matching the filter.
func (s *Store) ListAccounts(filter AccountFilter) ([]*models.Account, error) {
	var accounts []*models.Account
	err := s.View(func(t *Txn) error {
		return t.forEach(BucketAccounts, func(data []byte) error {
			var account models.Account
			if err := json.Unmarshal(data, &account); err != nil {
				return fmt.Errorf("failed to unmarshal account: %w", err)
			}
			if filter.matches(&account) {
				accounts = append(accounts, &account)
			}
			return nil
		})
	})
	return accounts, err
}
