package ledger

import "errors"

var (
	// ErrInsufficientFunds is returned when a debit would drive an
	// account's savings below zero. The account is left unmodified.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadyCompleted is returned when completing a transaction
	// that is already completed.
	ErrAlreadyCompleted = errors.New("transaction already completed")

	// ErrDuplicateTransaction is returned when creating a transaction
	// whose ID is already taken.
	ErrDuplicateTransaction = errors.New("transaction already exists")

	// ErrValidation is returned for missing or malformed input. Wrapped
	// errors carry the specific field message.
	ErrValidation = errors.New("validation failed")
)
