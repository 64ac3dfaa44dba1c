package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/events"
	"github.com/punchamoorthee/ledgerbook/internal/ledger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.EntryPosted
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.EntryPosted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newService(t *testing.T, pub events.Publisher) (*TransferService, *ledger.Ledger) {
	t.Helper()
	l := ledger.New()
	_, err := l.AddAccount("cash", "Cash")
	require.NoError(t, err)
	_, err = l.AddAccount("recv", "Receivable")
	require.NoError(t, err)
	return NewTransferService(l, pub, nil), l
}

func req(ref string, amount int64) domain.PostEntryRequest {
	return domain.PostEntryRequest{
		Ref:             ref,
		DebitAccountID:  "cash",
		CreditAccountID: "recv",
		Amount:          decimal.NewFromInt(amount),
	}
}

func TestProcessTransfer_PostsAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc, l := newService(t, pub)

	entry, replayed, err := svc.ProcessTransfer(context.Background(), req("T-1", 100), "k1", "h1")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, uint64(1), entry.Seq)

	acc, err := l.GetAccount("cash")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(100)))

	require.Len(t, pub.events, 1)
	assert.Equal(t, "T-1", pub.events[0].Ref)
	assert.Equal(t, uint64(1), pub.events[0].Seq)
}

func TestProcessTransfer_ReplaysSameKey(t *testing.T) {
	pub := &recordingPublisher{}
	svc, l := newService(t, pub)
	ctx := context.Background()

	first, _, err := svc.ProcessTransfer(ctx, req("T-1", 100), "k1", "h1")
	require.NoError(t, err)

	second, replayed, err := svc.ProcessTransfer(ctx, req("T-1", 100), "k1", "h1")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, l.Len())
	assert.Len(t, pub.events, 1)
}

func TestProcessTransfer_KeyReuseMismatch(t *testing.T) {
	svc, l := newService(t, nil)
	ctx := context.Background()

	_, _, err := svc.ProcessTransfer(ctx, req("T-1", 100), "k1", "h1")
	require.NoError(t, err)

	_, _, err = svc.ProcessTransfer(ctx, req("T-1", 999), "k1", "h2")
	require.ErrorIs(t, err, ErrIdempotencyMismatch)
	assert.Equal(t, 1, l.Len())
}

func TestProcessTransfer_InProgressConflict(t *testing.T) {
	svc, _ := newService(t, nil)
	svc.keys["busy"] = &idempotencyRecord{requestHash: "h1", status: keyInProgress}

	_, _, err := svc.ProcessTransfer(context.Background(), req("T-1", 1), "busy", "h1")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
}

func TestProcessTransfer_MissingKey(t *testing.T) {
	svc, l := newService(t, nil)
	_, _, err := svc.ProcessTransfer(context.Background(), req("T-1", 1), "", "h1")
	require.ErrorIs(t, err, ErrMissingIdempotencyKey)
	assert.Equal(t, 0, l.Len())
}

func TestProcessTransfer_RejectionReleasesKey(t *testing.T) {
	pub := &recordingPublisher{}
	svc, l := newService(t, pub)
	ctx := context.Background()

	bad := req("T-1", 10)
	bad.CreditAccountID = "ghost"
	_, _, err := svc.ProcessTransfer(ctx, bad, "k1", "h-bad")
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.Empty(t, pub.events)

	// the key is free again after a rejected post
	_, replayed, err := svc.ProcessTransfer(ctx, req("T-1", 10), "k1", "h-good")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, 1, l.Len())
}

func TestProcessTransfer_PublishFailureKeepsEntry(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, l := newService(t, pub)

	entry, _, err := svc.ProcessTransfer(context.Background(), req("T-1", 5), "k1", "h1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), entry.Seq)
	assert.Equal(t, 1, l.Len())
	require.NoError(t, l.Verify())
}

func TestProcessTransfer_ConcurrentDistinctKeys(t *testing.T) {
	svc, l := newService(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := req(fmt.Sprintf("T-%d", i), int64(i+1))
			if i%2 == 1 {
				r.DebitAccountID, r.CreditAccountID = r.CreditAccountID, r.DebitAccountID
			}
			_, _, err := svc.ProcessTransfer(context.Background(), r, fmt.Sprintf("k%d", i), "h")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
	require.NoError(t, l.Verify())
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "invalid_amount", rejectionReason(fmt.Errorf("x: %w", ledger.ErrInvalidAmount)))
	assert.Equal(t, "account_not_found", rejectionReason(ledger.ErrAccountNotFound))
	assert.Equal(t, "invalid_transfer", rejectionReason(ledger.ErrInvalidTransfer))
	assert.Equal(t, "other", rejectionReason(errors.New("x")))
}
