package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"paygate/model"
)

// Monitor caches each provider's last known health and probes the
// provider's health endpoint at most once per rate-limit interval, so a
// struggling provider is not hammered with health traffic on top of
// payment traffic. Probe failures never surface to callers; they only
// adjust the cache.
type Monitor struct {
	client       *http.Client
	urls         [model.ProviderCount]string
	slots        [model.ProviderCount]slot
	rateLimit    time.Duration
	probeTimeout time.Duration
}

// slot serializes probes and cache updates for one provider; different
// providers probe independently.
type slot struct {
	mu        sync.Mutex
	health    model.ProviderHealth
	lastProbe time.Time
}

func NewMonitor(client *http.Client, primaryURL, secondaryURL string, rateLimit, probeTimeout time.Duration) *Monitor {
	m := &Monitor{
		client: client,
		urls: [model.ProviderCount]string{
			model.ProviderPrimary:   primaryURL + "/payments/service-health",
			model.ProviderSecondary: secondaryURL + "/payments/service-health",
		},
		rateLimit:    rateLimit,
		probeTimeout: probeTimeout,
	}
	// start optimistic: assume working until proven otherwise
	for i := range m.slots {
		m.slots[i].health = model.ProviderHealth{Failing: false}
	}
	return m
}

func (m *Monitor) GetHealth(ctx context.Context, p model.Provider) model.ProviderHealth {
	s := &m.slots[p]
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastProbe.IsZero() && time.Since(s.lastProbe) < m.rateLimit {
		return s.health
	}

	s.health = m.probe(ctx, m.urls[p])
	s.lastProbe = time.Now()
	return s.health
}

func (m *Monitor) probe(ctx context.Context, url string) model.ProviderHealth {
	probedAt := time.Now()

	ctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return unhealthy(probedAt)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		// A timed-out probe means the provider is slow, not down.
		if isTimeout(err) {
			return model.ProviderHealth{Failing: false, MinResponseTime: 3000, ProbedAt: probedAt}
		}
		return unhealthy(probedAt)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unhealthy(probedAt)
	}

	var body model.HealthResponse
	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(&body); err != nil {
		return unhealthy(probedAt)
	}

	return model.ProviderHealth{
		Failing:         body.Failing,
		MinResponseTime: body.MinResponseTime,
		ProbedAt:        probedAt,
	}
}

func unhealthy(probedAt time.Time) model.ProviderHealth {
	return model.ProviderHealth{Failing: true, MinResponseTime: 5000, ProbedAt: probedAt}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
