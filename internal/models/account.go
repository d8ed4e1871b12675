package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of a member account.
type AccountStatus string

const (
	AccountPending   AccountStatus = "pending"
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountClosed    AccountStatus = "closed"
)

// ValidAccountStatus reports whether s is a known account status.
func ValidAccountStatus(s AccountStatus) bool {
	switch s {
	case AccountPending, AccountActive, AccountSuspended, AccountClosed:
		return true
	}
	return false
}

// Account holds the balances for one member. One account per member
// number. Savings is never negative and only changes through the
// ledger engine.
type Account struct {
	MemberNumber        string          `json:"memberNumber"`
	Savings             decimal.Decimal `json:"savings"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	SharesOwned         decimal.Decimal `json:"sharesOwned"`
	AccountStatus       AccountStatus   `json:"accountStatus"`
	LastTransactionDate *time.Time      `json:"lastTransactionDate,omitempty"`
	AccountOpenDate     time.Time       `json:"accountOpenDate"`
	Notes               string          `json:"notes,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// TotalValue is savings plus the value of shares owned.
func (a *Account) TotalValue() decimal.Decimal {
	return a.Savings.Add(a.SharesOwned)
}

// CreateAccountRequest is the body for POST /api/accounts.
type CreateAccountRequest struct {
	MemberNumber        string           `json:"memberNumber"`
	Savings             *decimal.Decimal `json:"savings,omitempty"`
	MonthlyContribution *decimal.Decimal `json:"monthlyContribution,omitempty"`
	SharesOwned         *decimal.Decimal `json:"sharesOwned,omitempty"`
	AccountStatus       *AccountStatus   `json:"accountStatus,omitempty"`
	Notes               *string          `json:"notes,omitempty"`
}

// UpdateAccountRequest is the body for PUT /api/accounts/{id}.
// Nil fields are left unchanged. Savings is deliberately absent:
// balance changes go through the ledger engine only.
type UpdateAccountRequest struct {
	MonthlyContribution *decimal.Decimal `json:"monthlyContribution,omitempty"`
	SharesOwned         *decimal.Decimal `json:"sharesOwned,omitempty"`
	AccountStatus       *AccountStatus   `json:"accountStatus,omitempty"`
	Notes               *string          `json:"notes,omitempty"`
}

// AdjustBalanceRequest is the body for PATCH /api/accounts/{id}/balance.
type AdjustBalanceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"` // credit or debit
	Description string          `json:"description,omitempty"`
}
