package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"paygate/model"
)

// Client submits payments to the two external providers. Every call
// carries its own hard deadline; on expiry only that call is canceled.
type Client struct {
	http    *http.Client
	urls    [model.ProviderCount]string
	timeout time.Duration
}

func NewClient(httpClient *http.Client, primaryURL, secondaryURL string, timeout time.Duration) *Client {
	return &Client{
		http: httpClient,
		urls: [model.ProviderCount]string{
			model.ProviderPrimary:   primaryURL,
			model.ProviderSecondary: secondaryURL,
		},
		timeout: timeout,
	}
}

func (c *Client) Submit(ctx context.Context, p model.Provider, sub model.PaymentSubmission) (model.SettlementRecord, error) {
	requestedAt := time.Now().UTC()

	payload := model.ProviderPaymentRequest{
		CorrelationID: sub.CorrelationID,
		Amount:        sub.Amount.InexactFloat64(),
		RequestedAt:   requestedAt.Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return model.SettlementRecord{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.urls[p]+"/payments", bytes.NewReader(body))
	if err != nil {
		return model.SettlementRecord{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.SettlementRecord{}, fmt.Errorf("request to %s failed: %w", p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.SettlementRecord{}, fmt.Errorf("provider %s returned status %d", p, resp.StatusCode)
	}

	// The provider echoes the request back; its requestedAt is the
	// provider-side acceptance time when present.
	processedAt := requestedAt
	var echo model.ProviderPaymentRequest
	if err := json.NewDecoder(resp.Body).Decode(&echo); err == nil && echo.RequestedAt != "" {
		if t, parseErr := time.Parse(time.RFC3339Nano, echo.RequestedAt); parseErr == nil {
			processedAt = t
		}
	}

	return model.SettlementRecord{
		CorrelationID: sub.CorrelationID,
		Amount:        sub.Amount,
		Provider:      p,
		ProcessedAt:   processedAt,
	}, nil
}
