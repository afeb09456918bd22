package router

import (
	"context"
	"fmt"
	"time"

	"paygate/model"
)

const (
	maxAttempts = 3
	baseBackoff = 50 * time.Millisecond
	maxBackoff  = 500 * time.Millisecond
)

type ProviderClient interface {
	Submit(ctx context.Context, p model.Provider, sub model.PaymentSubmission) (model.SettlementRecord, error)
}

type HealthSource interface {
	GetHealth(ctx context.Context, p model.Provider) model.ProviderHealth
}

// Router executes one submission against a provider with bounded
// retries and at most one failover attempt. Primary is tried
// exhaustively first because it is cheaper; Secondary is attempted
// exactly once, after Primary's budget is spent, and only if its cached
// health says it is not failing. This avoids flip-flopping between
// providers mid-retry.
type Router struct {
	client ProviderClient
	health HealthSource
}

func New(client ProviderClient, health HealthSource) *Router {
	return &Router{client: client, health: health}
}

func (r *Router) ProcessWithRetry(ctx context.Context, sub model.PaymentSubmission) (model.SettlementRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rec, err := r.client.Submit(ctx, model.ProviderPrimary, sub)
		if err == nil {
			return rec, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, backoffDelay(attempt)); err != nil {
			return model.SettlementRecord{}, fmt.Errorf("%w: %v", model.ErrProviderUnavailable, err)
		}
	}

	if h := r.health.GetHealth(ctx, model.ProviderSecondary); !h.Failing {
		rec, err := r.client.Submit(ctx, model.ProviderSecondary, sub)
		if err == nil {
			return rec, nil
		}
		lastErr = err
	}

	return model.SettlementRecord{}, fmt.Errorf("%w: %v", model.ErrProviderUnavailable, lastErr)
}

// backoffDelay is a pure function of the current call's attempt count;
// no delay state is shared across concurrent submissions.
func backoffDelay(attempt int) time.Duration {
	delay := baseBackoff << (attempt - 1)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
