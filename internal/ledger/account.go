package ledger

import "github.com/shopspring/decimal"

// Account is a snapshot of a ledger account. Balance changes only through
// Ledger.Post; values handed out by the Ledger are copies.
type Account struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}
