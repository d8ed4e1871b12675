package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TypeDeposit       TransactionType = "deposit"
	TypeWithdrawal    TransactionType = "withdrawal"
	TypeContribution  TransactionType = "contribution"
	TypeSharePurchase TransactionType = "share_purchase"
	TypeLoanPayment   TransactionType = "loan_payment"
	TypeDividend      TransactionType = "dividend"
	TypeFee           TransactionType = "fee"
	TypeTransfer      TransactionType = "transfer"
)

// ValidTransactionType reports whether t is a known transaction type.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeContribution, TypeSharePurchase,
		TypeLoanPayment, TypeDividend, TypeFee, TypeTransfer:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
	StatusProcessing TransactionStatus = "processing"
)

// ValidTransactionStatus reports whether s is a known transaction status.
func ValidTransactionStatus(s TransactionStatus) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled, StatusProcessing:
		return true
	}
	return false
}

// Category groups transactions for reporting.
type Category string

const (
	CategorySavings Category = "savings"
	CategoryShares  Category = "shares"
	CategoryLoan    Category = "loan"
	CategoryFee     Category = "fee"
	CategoryOther   Category = "other"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	switch c {
	case CategorySavings, CategoryShares, CategoryLoan, CategoryFee, CategoryOther:
		return true
	}
	return false
}

// MaxDescriptionLen caps transaction descriptions.
const MaxDescriptionLen = 200

// Transaction is one ledger entry against a member account.
// AccountBalance is a snapshot of the account savings taken when the
// transaction was last applied.
type Transaction struct {
	TransactionID  string            `json:"transactionId"`
	MemberNumber   string            `json:"memberNumber"`
	Date           time.Time         `json:"date"`
	Type           TransactionType   `json:"type"`
	Amount         decimal.Decimal   `json:"amount"`
	Status         TransactionStatus `json:"status"`
	AccountBalance decimal.Decimal   `json:"accountBalance"`
	ConfirmedBy    string            `json:"confirmedBy,omitempty"`
	Description    string            `json:"description,omitempty"`
	Reference      string            `json:"reference,omitempty"`
	Category       Category          `json:"category"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// NormalizeTransactionID trims and uppercases a transaction ID.
func NormalizeTransactionID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

const idTokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateTransactionID builds a unique transaction ID from the current
// time and a short random token, e.g. TXN1700000000000X7K2M.
func GenerateTransactionID() string {
	token := make([]byte, 5)
	for i := range token {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idTokenAlphabet))))
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic(err)
		}
		token[i] = idTokenAlphabet[n.Int64()]
	}
	return fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), token)
}

// CreateTransactionRequest is the body for POST /api/transactions.
type CreateTransactionRequest struct {
	TransactionID string             `json:"transactionId,omitempty"`
	MemberNumber  string             `json:"memberNumber"`
	Date          *time.Time         `json:"date,omitempty"`
	Type          TransactionType    `json:"type"`
	Amount        decimal.Decimal    `json:"amount"`
	Status        *TransactionStatus `json:"status,omitempty"`
	ConfirmedBy   string             `json:"confirmedBy,omitempty"`
	Description   string             `json:"description,omitempty"`
	Reference     string             `json:"reference,omitempty"`
	Category      *Category          `json:"category,omitempty"`
}

// UpdateTransactionRequest is the body for PUT /api/transactions/{id}.
// Nil fields are left unchanged.
type UpdateTransactionRequest struct {
	MemberNumber *string            `json:"memberNumber,omitempty"`
	Date         *time.Time         `json:"date,omitempty"`
	Type         *TransactionType   `json:"type,omitempty"`
	Amount       *decimal.Decimal   `json:"amount,omitempty"`
	Status       *TransactionStatus `json:"status,omitempty"`
	ConfirmedBy  *string            `json:"confirmedBy,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Reference    *string            `json:"reference,omitempty"`
	Category     *Category          `json:"category,omitempty"`
}

// CompleteTransactionRequest is the body for PATCH /api/transactions/{id}/complete.
type CompleteTransactionRequest struct {
	ConfirmedBy string `json:"confirmedBy"`
}
