// Package ledger implements an in-memory double-entry book: an account
// registry, an append-only entry log, and the posting operation that moves
// value between two accounts.
//
// The sum of all balances in a Ledger is always zero, and replaying the
// entry log from zero balances reproduces every current balance.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is safe for concurrent use. A single lock guards the registry and
// the log, so a post never races with another post on either account.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*Account
	order    []string
	entries  []Entry
	now      func() time.Time
}

type Option func(*Ledger)

// WithClock overrides the timestamp source used for new entries.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[string]*Account),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddAccount registers a new account with a zero balance.
func (l *Ledger) AddAccount(id, name string) (Account, error) {
	if id == "" || name == "" {
		return Account{}, fmt.Errorf("%w: id=%q name=%q", ErrInvalidAccount, id, name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.accounts[id]; exists {
		return Account{}, fmt.Errorf("%w: %q", ErrDuplicateAccount, id)
	}

	acc := &Account{ID: id, Name: name, Balance: decimal.Zero}
	l.accounts[id] = acc
	l.order = append(l.order, id)
	return *acc, nil
}

func (l *Ledger) GetAccount(id string) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("%w: %q", ErrAccountNotFound, id)
	}
	return *acc, nil
}

// ListAccounts returns copies of all accounts in registration order.
func (l *Ledger) ListAccounts() []Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Account, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.accounts[id])
	}
	return out
}

// Post records a transfer of amount from the credit account to the debit
// account. Checks run in order: amount (positive and within MaxScale and
// MaxIntegerDigits), debit account, credit account, distinct accounts. On any failure nothing is changed.
func (l *Ledger) Post(ref, debitID, creditID string, amount decimal.Decimal) (Entry, error) {
	if err := validateAmount(amount); err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	debit, ok := l.accounts[debitID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrAccountNotFound, debitID)
	}
	credit, ok := l.accounts[creditID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrAccountNotFound, creditID)
	}
	if debitID == creditID {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidTransfer, debitID)
	}

	entry := Entry{
		Seq:             uint64(len(l.entries)) + 1,
		Ref:             ref,
		DebitAccountID:  debitID,
		CreditAccountID: creditID,
		Amount:          amount,
		Timestamp:       l.now(),
	}
	l.entries = append(l.entries, entry)
	debit.Balance = debit.Balance.Add(amount)
	credit.Balance = credit.Balance.Sub(amount)

	return entry, nil
}

// ListEntries returns the log in posting order.
func (l *Ledger) ListEntries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Entry returns the entry with the given 1-based sequence number.
func (l *Ledger) Entry(seq uint64) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if seq == 0 || seq > uint64(len(l.entries)) {
		return Entry{}, fmt.Errorf("%w: seq %d", ErrEntryNotFound, seq)
	}
	return l.entries[seq-1], nil
}

// EntriesFor returns every entry touching accountID, in posting order.
func (l *Ledger) EntriesFor(accountID string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[accountID]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, accountID)
	}

	out := []Entry{}
	for _, e := range l.entries {
		if e.DebitAccountID == accountID || e.CreditAccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len reports the number of posted entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Total is the sum of all balances. It is zero for a consistent ledger.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	sum := decimal.Zero
	for _, acc := range l.accounts {
		sum = sum.Add(acc.Balance)
	}
	return sum
}
