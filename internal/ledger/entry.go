package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one immutable value transfer. The debit side gains Amount and the
// credit side loses it.
type Entry struct {
	Seq             uint64          `json:"seq"`
	Ref             string          `json:"ref"`
	DebitAccountID  string          `json:"debit_account_id"`
	CreditAccountID string          `json:"credit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Posting amounts carry at most MaxScale fractional digits and at most
// MaxIntegerDigits digits before the point. Larger exponents would make
// every later balance operation pay for the rescale.
const (
	MaxScale         = 18
	MaxIntegerDigits = 20
)

// AmountFromFloat converts f to a posting amount. NaN, infinities, zero,
// negative values and values outside the amount range are rejected.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	amount := decimal.NewFromFloat(f)
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func validateAmount(amount decimal.Decimal) error {
	// Exponent first: formatting an out-of-range amount expands it.
	exp := int64(amount.Exponent())
	if exp < -MaxScale || exp > MaxIntegerDigits {
		return fmt.Errorf("%w: exponent %d outside [-%d, %d]", ErrInvalidAmount, exp, MaxScale, MaxIntegerDigits)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if int64(amount.NumDigits())+exp > MaxIntegerDigits {
		return fmt.Errorf("%w: more than %d integer digits", ErrInvalidAmount, MaxIntegerDigits)
	}
	return nil
}
