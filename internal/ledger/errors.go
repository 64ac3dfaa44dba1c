package ledger

import "errors"

var (
	ErrInvalidAccount   = errors.New("account id and name are required")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrAccountNotFound  = errors.New("account not found")
	ErrEntryNotFound    = errors.New("entry not found")
	ErrInvalidAmount    = errors.New("amount must be a finite positive number")
	ErrInvalidTransfer  = errors.New("debit and credit accounts must differ")

	// Returned by Verify.
	ErrImbalance = errors.New("ledger balances do not sum to zero")
	ErrDrift     = errors.New("account balance does not match entry history")
)
