package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paygate/model"
)

type fakeClient struct {
	calls          []model.Provider
	primaryFails   bool
	secondaryFails bool
}

func (f *fakeClient) Submit(_ context.Context, p model.Provider, sub model.PaymentSubmission) (model.SettlementRecord, error) {
	f.calls = append(f.calls, p)
	fails := f.primaryFails
	if p == model.ProviderSecondary {
		fails = f.secondaryFails
	}
	if fails {
		return model.SettlementRecord{}, errors.New("connection refused")
	}
	return model.SettlementRecord{
		CorrelationID: sub.CorrelationID,
		Amount:        sub.Amount,
		Provider:      p,
		ProcessedAt:   time.Now(),
	}, nil
}

type fakeHealth struct {
	failing map[model.Provider]bool
}

func (f *fakeHealth) GetHealth(_ context.Context, p model.Provider) model.ProviderHealth {
	return model.ProviderHealth{Failing: f.failing[p], ProbedAt: time.Now()}
}

func testSubmission() model.PaymentSubmission {
	return model.PaymentSubmission{CorrelationID: uuid.NewString(), Amount: decimal.RequireFromString("19.90")}
}

func countCalls(calls []model.Provider, p model.Provider) int {
	n := 0
	for _, c := range calls {
		if c == p {
			n++
		}
	}
	return n
}

func TestPrimarySucceedsFirstAttempt(t *testing.T) {
	client := &fakeClient{}
	r := New(client, &fakeHealth{failing: map[model.Provider]bool{}})

	rec, err := r.ProcessWithRetry(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("ProcessWithRetry failed: %v", err)
	}
	if rec.Provider != model.ProviderPrimary {
		t.Errorf("expected primary provider tag, got %s", rec.Provider)
	}
	if len(client.calls) != 1 {
		t.Errorf("expected exactly 1 call, got %d", len(client.calls))
	}
}

func TestFailsOverToSecondaryAfterPrimaryBudget(t *testing.T) {
	client := &fakeClient{primaryFails: true}
	r := New(client, &fakeHealth{failing: map[model.Provider]bool{}})

	rec, err := r.ProcessWithRetry(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("ProcessWithRetry failed: %v", err)
	}
	if rec.Provider != model.ProviderSecondary {
		t.Errorf("expected secondary provider tag, got %s", rec.Provider)
	}
	if got := countCalls(client.calls, model.ProviderPrimary); got != 3 {
		t.Errorf("expected exactly 3 primary calls, got %d", got)
	}
	if got := countCalls(client.calls, model.ProviderSecondary); got != 1 {
		t.Errorf("expected exactly 1 secondary call, got %d", got)
	}
	// primary attempts must come before the failover attempt
	if client.calls[len(client.calls)-1] != model.ProviderSecondary {
		t.Errorf("secondary must be the last call, got order %v", client.calls)
	}
}

func TestBothProvidersFailing(t *testing.T) {
	client := &fakeClient{primaryFails: true, secondaryFails: true}
	r := New(client, &fakeHealth{failing: map[model.Provider]bool{}})

	_, err := r.ProcessWithRetry(context.Background(), testSubmission())
	if !errors.Is(err, model.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if len(client.calls) != 4 {
		t.Errorf("expected exactly 4 external calls (3 primary + 1 secondary), got %d", len(client.calls))
	}
}

func TestUnhealthySecondaryNeverAttempted(t *testing.T) {
	client := &fakeClient{primaryFails: true}
	r := New(client, &fakeHealth{failing: map[model.Provider]bool{model.ProviderSecondary: true}})

	_, err := r.ProcessWithRetry(context.Background(), testSubmission())
	if !errors.Is(err, model.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if got := countCalls(client.calls, model.ProviderSecondary); got != 0 {
		t.Errorf("failing secondary must not be called, got %d calls", got)
	}
	if len(client.calls) != 3 {
		t.Errorf("expected exactly 3 calls, got %d", len(client.calls))
	}
}

func TestBackoffDelayIsPureAndCapped(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 50 * time.Millisecond},
		{2, 100 * time.Millisecond},
		{3, 200 * time.Millisecond},
		{4, 400 * time.Millisecond},
		{5, 500 * time.Millisecond},
		{8, 500 * time.Millisecond},
	}
	for _, c := range cases {
		if got := backoffDelay(c.attempt); got != c.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}
