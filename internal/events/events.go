package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/ledgerbook/internal/ledger"
)

// EntryPosted is emitted once for every newly posted ledger entry.
type EntryPosted struct {
	EventID         string          `json:"event_id"`
	Seq             uint64          `json:"seq"`
	Ref             string          `json:"ref"`
	DebitAccountID  string          `json:"debit_account_id"`
	CreditAccountID string          `json:"credit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

func NewEntryPosted(e ledger.Entry) EntryPosted {
	return EntryPosted{
		EventID:         uuid.NewString(),
		Seq:             e.Seq,
		Ref:             e.Ref,
		DebitAccountID:  e.DebitAccountID,
		CreditAccountID: e.CreditAccountID,
		Amount:          e.Amount,
		OccurredAt:      e.Timestamp,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event EntryPosted) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, EntryPosted) error { return nil }
func (NopPublisher) Close() error                               { return nil }
