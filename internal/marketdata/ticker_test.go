package marketdata

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() Option { return WithRand(rand.New(rand.NewSource(42))) }

func TestStep_WalkBounds(t *testing.T) {
	tk := NewTicker("TSIM", 100, seeded())

	prev := 100.0
	for i := 0; i < 1000; i++ {
		tick := tk.Step()
		assert.Equal(t, "TSIM", tick.Symbol)
		assert.GreaterOrEqual(t, tick.Price, minPrice)
		assert.LessOrEqual(t, math.Abs(tick.Price-prev), maxStep/2+0.011)
		assert.Equal(t, tick.Price, math.Round(tick.Price*100)/100)
		assert.GreaterOrEqual(t, tick.Size, 1)
		assert.LessOrEqual(t, tick.Size, maxSize)
		assert.Contains(t, []string{"BUY", "SELL"}, tick.Side)
		prev = tick.Price
	}
}

func TestStep_PriceFloor(t *testing.T) {
	tk := NewTicker("PENNY", 0.01, seeded())
	for i := 0; i < 200; i++ {
		assert.GreaterOrEqual(t, tk.Step().Price, minPrice)
	}
}

func TestStep_Deterministic(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewTicker("X", 50, seeded(), WithClock(func() time.Time { return fixed }))
	b := NewTicker("X", 50, seeded(), WithClock(func() time.Time { return fixed }))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Step(), b.Step())
	}
}

func TestOptions_NilKeepsDefaults(t *testing.T) {
	tk := NewTicker("TSIM", 100, WithRand(nil), WithClock(nil))

	var tick Tick
	require.NotPanics(t, func() { tick = tk.Step() })
	assert.Equal(t, "TSIM", tick.Symbol)
	assert.False(t, tick.Timestamp.IsZero())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	tk := NewTicker("TSIM", 100, seeded())

	var first, second []Tick
	cancelFirst := tk.Subscribe(func(t Tick) { first = append(first, t) })
	tk.Subscribe(func(t Tick) { second = append(second, t) })

	tk.Step()
	cancelFirst()
	cancelFirst()
	tk.Step()

	assert.Len(t, first, 1)
	assert.Len(t, second, 2)
}

func TestLast(t *testing.T) {
	tk := NewTicker("TSIM", 100, seeded())
	_, ok := tk.Last()
	assert.False(t, ok)

	tick := tk.Step()
	last, ok := tk.Last()
	require.True(t, ok)
	assert.Equal(t, tick, last)
}

func TestRun_StopsOnCancel(t *testing.T) {
	tk := NewTicker("TSIM", 100, seeded())

	var mu sync.Mutex
	count := 0
	got := make(chan struct{}, 1)
	tk.Subscribe(func(Tick) {
		mu.Lock()
		count++
		mu.Unlock()
		select {
		case got <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tk.Run(ctx, time.Millisecond) }()

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick emitted")
	}
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, count)
}

func TestFeed(t *testing.T) {
	f := NewFeed([]string{"AAA", "BBB", "AAA", ""}, 10, seeded())
	assert.Equal(t, []string{"AAA", "BBB"}, f.Symbols())

	_, ok := f.Ticker("CCC")
	assert.False(t, ok)

	var mu sync.Mutex
	seen := map[string]int{}
	cancelSub := f.Subscribe(func(tick Tick) {
		mu.Lock()
		seen[tick.Symbol]++
		mu.Unlock()
	})

	a, _ := f.Ticker("AAA")
	b, _ := f.Ticker("BBB")
	a.Step()
	b.Step()
	b.Step()
	cancelSub()
	a.Step()

	assert.Equal(t, map[string]int{"AAA": 1, "BBB": 2}, seen)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, f.Run(ctx, time.Millisecond))
}
