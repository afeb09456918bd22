package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"paygate/internal/queue"
	"paygate/model"
)

type Router interface {
	ProcessWithRetry(ctx context.Context, sub model.PaymentSubmission) (model.SettlementRecord, error)
}

type Persister interface {
	Persist(records []model.SettlementRecord) <-chan error
}

// Dispatcher drains the intake queue in micro-batch windows and fans
// each window out to the router with a bounded in-flight limit. One
// drain loop runs per instance for the process lifetime. Windows may
// overlap in completion; the semaphore bounds total in-flight provider
// calls across them. Failed submissions are logged and dropped — the
// submitter was already acknowledged at intake and receives no further
// signal.
type Dispatcher struct {
	queue     *queue.IntakeQueue
	router    Router
	persister Persister
	batchSize int
	maxWait   time.Duration
	inflight  *semaphore.Weighted
	wg        sync.WaitGroup
}

func New(q *queue.IntakeQueue, router Router, persister Persister, batchSize int, maxWait time.Duration, parallelism int) *Dispatcher {
	return &Dispatcher{
		queue:     q,
		router:    router,
		persister: persister,
		batchSize: batchSize,
		maxWait:   maxWait,
		inflight:  semaphore.NewWeighted(int64(parallelism)),
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	for {
		batch, err := d.queue.DrainWindow(ctx, d.batchSize, d.maxWait)
		if err != nil {
			return
		}

		for _, sub := range batch {
			if err := d.inflight.Acquire(ctx, 1); err != nil {
				slog.Warn("dispatcher stopping with submissions in flight window", "err", err)
				return
			}
			d.wg.Add(1)
			go d.process(ctx, sub)
		}
	}
}

// Wait blocks until every launched submission has finished, for
// best-effort draining of in-flight windows on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) process(ctx context.Context, sub model.PaymentSubmission) {
	defer d.wg.Done()
	defer d.inflight.Release(1)

	rec, err := d.router.ProcessWithRetry(ctx, sub)
	if err != nil {
		slog.Error("payment failed", "correlationId", sub.CorrelationID, "err", err)
		return
	}

	ack := d.persister.Persist([]model.SettlementRecord{rec})
	select {
	case err := <-ack:
		if err != nil {
			slog.Error("settlement record dropped", "correlationId", rec.CorrelationID, "err", err)
		}
	case <-ctx.Done():
	}
}
