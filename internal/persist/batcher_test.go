package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paygate/model"
)

type fakeStore struct {
	mu      sync.Mutex
	batches [][]model.SettlementRecord
	err     error
}

func (f *fakeStore) InsertBatch(records []model.SettlementRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	batch := make([]model.SettlementRecord, len(records))
	copy(batch, records)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func testRecord() model.SettlementRecord {
	return model.SettlementRecord{
		CorrelationID: uuid.NewString(),
		Amount:        decimal.RequireFromString("3.33"),
		Provider:      model.ProviderPrimary,
		ProcessedAt:   time.Now(),
	}
}

func awaitAck(t *testing.T, ack <-chan error) error {
	t.Helper()
	select {
	case err := <-ack:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("completion handle never resolved")
		return nil
	}
}

func TestSizeTriggeredFlush(t *testing.T) {
	store := &fakeStore{}
	b := NewBatcher(store, 2, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	ack1 := b.Persist([]model.SettlementRecord{testRecord()})
	ack2 := b.Persist([]model.SettlementRecord{testRecord()})

	if err := awaitAck(t, ack1); err != nil {
		t.Errorf("unexpected flush error: %v", err)
	}
	if err := awaitAck(t, ack2); err != nil {
		t.Errorf("unexpected flush error: %v", err)
	}

	if got := store.batchCount(); got != 1 {
		t.Errorf("expected a single bulk write, got %d", got)
	}
	if got := len(store.batches[0]); got != 2 {
		t.Errorf("expected 2 records in the flush, got %d", got)
	}
}

func TestDeadlineTriggeredFlush(t *testing.T) {
	store := &fakeStore{}
	b := NewBatcher(store, 100, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	start := time.Now()
	ack := b.Persist([]model.SettlementRecord{testRecord()})

	if err := awaitAck(t, ack); err != nil {
		t.Errorf("unexpected flush error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("deadline flush took too long: %v", elapsed)
	}
}

func TestFlushFailureFailsEveryHandleOnce(t *testing.T) {
	store := &fakeStore{err: errors.New("store unreachable")}
	b := NewBatcher(store, 2, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	ack1 := b.Persist([]model.SettlementRecord{testRecord()})
	ack2 := b.Persist([]model.SettlementRecord{testRecord()})

	if err := awaitAck(t, ack1); err == nil {
		t.Error("expected the flush failure on the first handle")
	}
	if err := awaitAck(t, ack2); err == nil {
		t.Error("expected the flush failure on the second handle")
	}

	// the failed batch is dropped, never requeued
	time.Sleep(50 * time.Millisecond)
	if got := store.batchCount(); got != 0 {
		t.Errorf("failed batch must not be retried, got %d stored batches", got)
	}
}

func TestPersistEmptyResolvesImmediately(t *testing.T) {
	b := NewBatcher(&fakeStore{}, 10, time.Hour)
	if err := awaitAck(t, b.Persist(nil)); err != nil {
		t.Errorf("empty persist must resolve nil, got %v", err)
	}
}

func TestFinalFlushOnShutdown(t *testing.T) {
	store := &fakeStore{}
	b := NewBatcher(store, 100, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	ack := b.Persist([]model.SettlementRecord{testRecord()})
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not stop")
	}
	if err := awaitAck(t, ack); err != nil {
		t.Errorf("final flush failed: %v", err)
	}
	if got := store.batchCount(); got != 1 {
		t.Errorf("expected the buffered record flushed on shutdown, got %d batches", got)
	}
}
