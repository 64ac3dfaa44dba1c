package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateAccountRequest is the payload for POST /accounts.
type CreateAccountRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostEntryRequest is the payload for POST /entries.
type PostEntryRequest struct {
	Ref             string          `json:"ref"`
	DebitAccountID  string          `json:"debit_account_id"`
	CreditAccountID string          `json:"credit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// EntryResponse wraps a posted entry. Replayed is set when the
// Idempotency-Key had already been used for the same payload.
type EntryResponse struct {
	Seq             uint64          `json:"seq"`
	Ref             string          `json:"ref"`
	DebitAccountID  string          `json:"debit_account_id"`
	CreditAccountID string          `json:"credit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Timestamp       time.Time       `json:"timestamp"`
	Replayed        bool            `json:"replayed,omitempty"`
}

// VerifyResponse reports the result of a conservation check.
type VerifyResponse struct {
	Status   string          `json:"status"`
	Accounts int             `json:"accounts"`
	Entries  int             `json:"entries"`
	Total    decimal.Decimal `json:"total"`
	Error    string          `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
