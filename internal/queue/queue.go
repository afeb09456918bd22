package queue

import (
	"context"
	"sync"
	"time"

	"paygate/model"
)

// IntakeQueue is an unbounded multi-producer/single-consumer FIFO of
// payment submissions. Enqueue never blocks and never fails; the single
// consumer drains it in micro-batch windows. A buffered signal channel
// wakes the drain loop instead of spawning a task per enqueue.
type IntakeQueue struct {
	mu     sync.Mutex
	items  []model.PaymentSubmission
	signal chan struct{}
}

func NewIntakeQueue() *IntakeQueue {
	return &IntakeQueue{
		signal: make(chan struct{}, 1),
	}
}

func (q *IntakeQueue) Enqueue(sub model.PaymentSubmission) {
	q.mu.Lock()
	q.items = append(q.items, sub)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *IntakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// DrainWindow blocks until at least one submission is available, then
// keeps collecting until the batch reaches batchSize or maxWait has
// elapsed since the first item of the window, whichever happens first.
// It returns an error only when the context is canceled before any item
// arrived.
func (q *IntakeQueue) DrainWindow(ctx context.Context, batchSize int, maxWait time.Duration) ([]model.PaymentSubmission, error) {
	batch := q.take(batchSize)
	for len(batch) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.signal:
		}
		batch = q.take(batchSize)
	}

	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()

	for len(batch) < batchSize {
		select {
		case <-ctx.Done():
			return batch, nil
		case <-deadline.C:
			return batch, nil
		case <-q.signal:
			batch = append(batch, q.take(batchSize-len(batch))...)
		}
	}
	return batch, nil
}

func (q *IntakeQueue) take(max int) []model.PaymentSubmission {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || max <= 0 {
		return nil
	}
	n := min(max, len(q.items))
	batch := make([]model.PaymentSubmission, n)
	copy(batch, q.items[:n])

	remaining := copy(q.items, q.items[n:])
	q.items = q.items[:remaining]
	return batch
}
