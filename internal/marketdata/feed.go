package marketdata

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// Feed runs one Ticker per symbol.
type Feed struct {
	tickers map[string]*Ticker
	order   []string
}

func NewFeed(symbols []string, startPrice float64, opts ...Option) *Feed {
	f := &Feed{tickers: make(map[string]*Ticker, len(symbols))}
	for _, s := range symbols {
		if _, dup := f.tickers[s]; dup || s == "" {
			continue
		}
		f.tickers[s] = NewTicker(s, startPrice, opts...)
		f.order = append(f.order, s)
	}
	return f
}

func (f *Feed) Ticker(symbol string) (*Ticker, bool) {
	t, ok := f.tickers[symbol]
	return t, ok
}

func (f *Feed) Symbols() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Subscribe attaches fn to every ticker in the feed.
func (f *Feed) Subscribe(fn Listener) func() {
	cancels := make([]func(), 0, len(f.order))
	for _, s := range f.order {
		cancels = append(cancels, f.tickers[s].Subscribe(fn))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// Run drives all tickers until ctx is done. Cancellation and deadline
// expiry are a normal stop, not an error.
func (f *Feed) Run(ctx context.Context, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range f.order {
		t := f.tickers[s]
		g.Go(func() error { return t.Run(ctx, interval) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
