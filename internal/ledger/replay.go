package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Replay applies entries in order starting from zero balances and returns
// the resulting balance per account id. Accounts that never appear in an
// entry are absent from the result.
func Replay(entries []Entry) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, e := range entries {
		balances[e.DebitAccountID] = balances[e.DebitAccountID].Add(e.Amount)
		balances[e.CreditAccountID] = balances[e.CreditAccountID].Sub(e.Amount)
	}
	return balances
}

// Verify checks that balances sum to zero and that replaying the log
// reproduces every account's balance.
func (l *Ledger) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	sum := decimal.Zero
	for _, acc := range l.accounts {
		sum = sum.Add(acc.Balance)
	}
	if !sum.IsZero() {
		return fmt.Errorf("%w: sum=%s", ErrImbalance, sum)
	}

	replayed := Replay(l.entries)
	for _, id := range l.order {
		acc := l.accounts[id]
		if want := replayed[id]; !acc.Balance.Equal(want) {
			return fmt.Errorf("%w: %q has %s, history gives %s", ErrDrift, id, acc.Balance, want)
		}
	}
	for id := range replayed {
		if _, ok := l.accounts[id]; !ok {
			return fmt.Errorf("%w: entry references unknown account %q", ErrDrift, id)
		}
	}
	return nil
}
