package store

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"paygate/model"
)

// RemoteStore talks to a storage tier deployed as a separate process,
// exposing the same persistence and query surface as the in-process
// engine.
type RemoteStore struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

func NewRemoteStore(baseURL string, httpClient *http.Client, timeout time.Duration) *RemoteStore {
	return &RemoteStore{
		baseURL: baseURL,
		http:    httpClient,
		timeout: timeout,
	}
}

func (r *RemoteStore) InsertBatch(records []model.SettlementRecord) error {
	dtos := make([]model.SettlementRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = rec.DTO()
	}
	body, err := sonic.Marshal(dtos)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/payments/batch", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return fmt.Errorf("%w: store rejected batch", model.ErrAmountOutOfRange)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("store returned status %d", resp.StatusCode)
	}
	return nil
}

func (r *RemoteStore) Summary(from, to time.Time) (model.SummaryResponse, error) {
	query := url.Values{}
	if !from.IsZero() {
		query.Set("from", from.UTC().Format(time.RFC3339Nano))
	}
	if !to.IsZero() {
		query.Set("to", to.UTC().Format(time.RFC3339Nano))
	}
	target := r.baseURL + "/payments-summary"
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return model.SummaryResponse{}, err
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return model.SummaryResponse{}, fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.SummaryResponse{}, fmt.Errorf("store returned status %d", resp.StatusCode)
	}

	var summary model.SummaryResponse
	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return model.SummaryResponse{}, fmt.Errorf("failed to decode summary: %w", err)
	}
	return summary, nil
}

func (r *RemoteStore) Purge() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.baseURL+"/admin/purge", nil)
	if err != nil {
		return err
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("store returned status %d", resp.StatusCode)
	}
	return nil
}
