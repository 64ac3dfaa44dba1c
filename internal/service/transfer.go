package service

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/events"
	"github.com/punchamoorthee/ledgerbook/internal/ledger"
)

var (
	ErrMissingIdempotencyKey = errors.New("missing idempotency key")
	ErrIdempotencyConflict   = errors.New("request in progress")
	ErrIdempotencyMismatch   = errors.New("key reuse with mismatched payload")
)

var (
	entriesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_entries_posted_total",
		Help: "Entries appended to the ledger",
	})

	postRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_post_rejections_total",
		Help: "Posts rejected before touching the ledger, by reason",
	}, []string{"reason"})

	amountPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_posted_amount_total",
		Help: "Sum of posted amounts (approximate, float)",
	})
)

type keyStatus int

const (
	keyInProgress keyStatus = iota
	keyCompleted
)

type idempotencyRecord struct {
	requestHash string
	status      keyStatus
	entry       ledger.Entry
}

// TransferService posts entries exactly once per idempotency key and
// announces each new entry to the configured publisher.
type TransferService struct {
	ledger    *ledger.Ledger
	publisher events.Publisher
	logger    *zap.Logger

	mu   sync.Mutex
	keys map[string]*idempotencyRecord
}

func NewTransferService(l *ledger.Ledger, pub events.Publisher, logger *zap.Logger) *TransferService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		ledger:    l,
		publisher: pub,
		logger:    logger,
		keys:      make(map[string]*idempotencyRecord),
	}
}

// ProcessTransfer posts req unless idempotencyKey was already used. A
// completed key with the same request hash replays the stored entry and
// reports replayed=true.
func (s *TransferService) ProcessTransfer(ctx context.Context, req domain.PostEntryRequest, idempotencyKey, reqHash string) (ledger.Entry, bool, error) {
	if idempotencyKey == "" {
		return ledger.Entry{}, false, ErrMissingIdempotencyKey
	}

	// 1. Idempotency check and reservation
	s.mu.Lock()
	if rec, ok := s.keys[idempotencyKey]; ok {
		s.mu.Unlock()
		if rec.requestHash != reqHash {
			return ledger.Entry{}, false, ErrIdempotencyMismatch
		}
		if rec.status == keyInProgress {
			return ledger.Entry{}, false, ErrIdempotencyConflict
		}
		return rec.entry, true, nil
	}
	rec := &idempotencyRecord{requestHash: reqHash, status: keyInProgress}
	s.keys[idempotencyKey] = rec
	s.mu.Unlock()

	// 2. Post
	entry, err := s.ledger.Post(req.Ref, req.DebitAccountID, req.CreditAccountID, req.Amount)
	if err != nil {
		s.mu.Lock()
		delete(s.keys, idempotencyKey)
		s.mu.Unlock()

		postRejections.WithLabelValues(rejectionReason(err)).Inc()
		s.logger.Debug("post rejected",
			zap.String("ref", req.Ref),
			zap.String("debit_account_id", req.DebitAccountID),
			zap.String("credit_account_id", req.CreditAccountID),
			zap.String("amount", req.Amount.String()),
			zap.Error(err),
		)
		return ledger.Entry{}, false, err
	}

	// 3. Finalize key
	s.mu.Lock()
	rec.status = keyCompleted
	rec.entry = entry
	s.mu.Unlock()

	entriesPosted.Inc()
	amountPosted.Add(entry.Amount.InexactFloat64())
	s.logger.Info("entry posted",
		zap.Uint64("seq", entry.Seq),
		zap.String("ref", entry.Ref),
		zap.String("debit_account_id", entry.DebitAccountID),
		zap.String("credit_account_id", entry.CreditAccountID),
		zap.String("amount", entry.Amount.String()),
	)

	// 4. Announce. The entry is already committed; a failed publish is
	// logged and not surfaced to the caller.
	if err := s.publisher.Publish(ctx, events.NewEntryPosted(entry)); err != nil {
		s.logger.Warn("entry event not published", zap.Uint64("seq", entry.Seq), zap.Error(err))
	}

	return entry, false, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ledger.ErrInvalidTransfer):
		return "invalid_transfer"
	default:
		return "other"
	}
}
