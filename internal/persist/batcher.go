package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"paygate/model"
)

type Store interface {
	InsertBatch(records []model.SettlementRecord) error
}

// Batcher accumulates settlement records and flushes them to the store
// in size- or time-bounded windows. The flush deadline is an explicit
// value armed when the first unflushed record arrives and checked by the
// run loop; no timer is rescheduled per enqueue. The single run loop
// makes flushing single-flight, and after each flush it re-checks
// whether further buffered records warrant another. A failed flush fails
// every pending handle in that batch; the batch is dropped, not
// requeued.
type Batcher struct {
	store     Store
	batchSize int
	maxWait   time.Duration

	mu       sync.Mutex
	buf      []model.SettlementRecord
	acks     []chan error
	deadline time.Time

	kick chan struct{}
}

func NewBatcher(store Store, batchSize int, maxWait time.Duration) *Batcher {
	return &Batcher{
		store:     store,
		batchSize: batchSize,
		maxWait:   maxWait,
		kick:      make(chan struct{}, 1),
	}
}

// Persist appends records to the buffer and returns a completion handle
// that resolves with the outcome of the flush containing them.
func (b *Batcher) Persist(records []model.SettlementRecord) <-chan error {
	ack := make(chan error, 1)
	if len(records) == 0 {
		ack <- nil
		return ack
	}

	b.mu.Lock()
	if len(b.buf) == 0 {
		b.deadline = time.Now().Add(b.maxWait)
	}
	b.buf = append(b.buf, records...)
	b.acks = append(b.acks, ack)
	b.mu.Unlock()

	select {
	case b.kick <- struct{}{}:
	default:
	}
	return ack
}

// Run drives flushing until the context is canceled, then performs one
// final best-effort flush of whatever is buffered.
func (b *Batcher) Run(ctx context.Context) {
	for {
		b.mu.Lock()
		buffered := len(b.buf)
		deadline := b.deadline
		b.mu.Unlock()

		if buffered == 0 {
			select {
			case <-ctx.Done():
				b.flush()
				return
			case <-b.kick:
			}
			continue
		}

		if buffered >= b.batchSize || !time.Now().Before(deadline) {
			b.flush()
			continue
		}

		timer := time.NewTimer(time.Until(deadline))
		select {
		case <-ctx.Done():
			timer.Stop()
			b.flush()
			return
		case <-b.kick:
		case <-timer.C:
		}
		timer.Stop()
	}
}

func (b *Batcher) flush() {
	b.mu.Lock()
	batch := b.buf
	acks := b.acks
	b.buf = nil
	b.acks = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	err := b.store.InsertBatch(batch)
	for _, ack := range acks {
		ack <- err
	}

	if err != nil {
		slog.Error("persistence flush failed, dropping batch", "records", len(batch), "err", err)
	}
}
