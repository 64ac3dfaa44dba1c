// Package marketdata produces synthetic random-walk price ticks for a set
// of symbols and fans them out to subscribers.
package marketdata

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	minPrice = 0.01
	maxStep  = 0.5
	maxSize  = 100
)

type Tick struct {
	Timestamp time.Time `json:"ts"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Size      int       `json:"size"`
	Side      string    `json:"side"`
}

type Listener func(Tick)

type subscription struct {
	id uint64
	fn Listener
}

type Ticker struct {
	symbol string
	now    func() time.Time

	mu        sync.Mutex
	rng       *rand.Rand
	price     float64
	last      Tick
	hasLast   bool
	subs      []subscription
	nextSubID uint64
}

type Option func(*Ticker)

// WithRand sets the random source. A nil source keeps the default.
func WithRand(rng *rand.Rand) Option {
	return func(t *Ticker) {
		if rng != nil {
			t.rng = rng
		}
	}
}

// WithClock overrides the tick timestamp source. A nil clock keeps the default.
func WithClock(now func() time.Time) Option {
	return func(t *Ticker) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTicker(symbol string, startPrice float64, opts ...Option) *Ticker {
	t := &Ticker{
		symbol: symbol,
		price:  startPrice,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Ticker) Symbol() string { return t.symbol }

// Subscribe registers fn for every future tick. The returned func removes
// it; calling it more than once is harmless.
func (t *Ticker) Subscribe(fn Listener) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextSubID++
	id := t.nextSubID
	t.subs = append(t.subs, subscription{id: id, fn: fn})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// Step advances the walk once and notifies subscribers.
func (t *Ticker) Step() Tick {
	t.mu.Lock()
	delta := (t.rng.Float64() - 0.5) * maxStep
	t.price = math.Max(minPrice, t.price+delta)
	side := "SELL"
	if t.rng.Float64() > 0.5 {
		side = "BUY"
	}
	tick := Tick{
		Timestamp: t.now(),
		Symbol:    t.symbol,
		Price:     math.Round(t.price*100) / 100,
		Size:      t.rng.Intn(maxSize) + 1,
		Side:      side,
	}
	t.last, t.hasLast = tick, true
	subs := make([]subscription, len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, s := range subs {
		s.fn(tick)
	}
	return tick
}

// Last returns the most recent tick, if any has been produced.
func (t *Ticker) Last() (Tick, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.hasLast
}

// Run emits a tick every interval until ctx is done.
func (t *Ticker) Run(ctx context.Context, interval time.Duration) error {
	tk := time.NewTicker(interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			t.Step()
		}
	}
}
