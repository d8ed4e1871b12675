package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesaflow/sacco-api/internal/models"
)

// EffectClass says how a transaction type moves an account's savings.
type EffectClass int

const (
	// ClassNone types are not reconciled against savings. They may
	// affect other balances (shares, loans) which are tracked outside
	// the savings ledger.
	ClassNone EffectClass = iota
	ClassCredit
	ClassDebit
)

// Direction selects whether an effect is being applied or undone.
type Direction int

const (
	Apply Direction = iota
	Reverse
)

// Effect maps a transaction type to its savings effect class. Only
// deposit, contribution and withdrawal touch savings.
func Effect(t models.TransactionType) EffectClass {
	switch t {
	case models.TypeDeposit, models.TypeContribution:
		return ClassCredit
	case models.TypeWithdrawal:
		return ClassDebit
	default:
		return ClassNone
	}
}

// inverse flips credit and debit. Reversing a credit debits the
// account and must still respect the non-negative invariant.
func (c EffectClass) inverse() EffectClass {
	switch c {
	case ClassCredit:
		return ClassDebit
	case ClassDebit:
		return ClassCredit
	default:
		return ClassNone
	}
}

// applyClass mutates the account's savings by amount according to the
// class. On ErrInsufficientFunds the account is left untouched.
// Callers persist the account in the same store transaction, so the
// check-then-write sequence cannot interleave with another mutation.
func applyClass(account *models.Account, class EffectClass, amount decimal.Decimal) error {
	switch class {
	case ClassCredit:
		account.Savings = account.Savings.Add(amount)
	case ClassDebit:
		if account.Savings.LessThan(amount) {
			return ErrInsufficientFunds
		}
		account.Savings = account.Savings.Sub(amount)
	default:
		return nil
	}

	now := time.Now()
	account.LastTransactionDate = &now
	account.UpdatedAt = now
	return nil
}

// applyEffect applies or reverses the savings effect of one
// transaction type and amount against an account.
func applyEffect(account *models.Account, t models.TransactionType, amount decimal.Decimal, dir Direction) error {
	class := Effect(t)
	if dir == Reverse {
		class = class.inverse()
	}
	return applyClass(account, class, amount)
}
