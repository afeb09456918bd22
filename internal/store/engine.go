package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"paygate/model"
)

const (
	DefaultAmountBits    = 32
	DefaultTimestampBits = 31
)

var hundred = decimal.NewFromInt(100)

// Engine is a compact, volatile, append-mostly store of settlement
// facts. Each entry packs (relative timestamp, cents) into one uint64
// as (relMs << amountBits) | cents; the provider tag lives in a
// parallel slice so provider cardinality can grow without re-encoding
// amounts and timestamps. Relative timestamps count milliseconds since
// the engine's creation instant, which bounds the store's addressable
// time window.
type Engine struct {
	createdAt     int64
	amountBits    uint
	amountMask    uint64
	timestampMask uint64

	mu        sync.Mutex
	entries   []uint64
	providers []model.Provider
}

func NewEngine(amountBits, timestampBits uint) (*Engine, error) {
	if amountBits == 0 || timestampBits == 0 || amountBits+timestampBits > 63 {
		return nil, fmt.Errorf("invalid bit widths: amount=%d timestamp=%d", amountBits, timestampBits)
	}
	return &Engine{
		createdAt:     time.Now().UnixMilli(),
		amountBits:    amountBits,
		amountMask:    1<<amountBits - 1,
		timestampMask: 1<<timestampBits - 1,
	}, nil
}

// pack rounds the amount to cents half away from zero and rejects any
// value that does not fit the configured widths; nothing is ever
// silently truncated.
func (e *Engine) pack(amount decimal.Decimal, timestampMs int64) (uint64, error) {
	cents := amount.Mul(hundred).Round(0).IntPart()
	if cents < 0 || uint64(cents) > e.amountMask {
		return 0, fmt.Errorf("%w: %s exceeds the representable maximum of %d.%02d",
			model.ErrAmountOutOfRange, amount, e.amountMask/100, e.amountMask%100)
	}

	rel := timestampMs - e.createdAt
	if rel < 0 || uint64(rel) > e.timestampMask {
		return 0, fmt.Errorf("%w: %dms relative to store creation, window is [0, %d]ms",
			model.ErrTimestampOutOfRange, rel, e.timestampMask)
	}

	return uint64(rel)<<e.amountBits | uint64(cents), nil
}

func (e *Engine) unpack(packed uint64) (cents int64, timestampMs int64) {
	cents = int64(packed & e.amountMask)
	timestampMs = e.createdAt + int64(packed>>e.amountBits&e.timestampMask)
	return cents, timestampMs
}

// InsertBatch packs every record before touching the entry list, so a
// range error leaves the store unchanged.
func (e *Engine) InsertBatch(records []model.SettlementRecord) error {
	if len(records) == 0 {
		return nil
	}

	packed := make([]uint64, len(records))
	tags := make([]model.Provider, len(records))
	for i, rec := range records {
		p, err := e.pack(rec.Amount, rec.ProcessedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.CorrelationID, err)
		}
		packed[i] = p
		tags[i] = rec.Provider
	}

	e.mu.Lock()
	e.entries = append(e.entries, packed...)
	e.providers = append(e.providers, tags...)
	e.mu.Unlock()
	return nil
}

// Summary aggregates entries with timestamps in [from, to], inclusive
// on both ends. A zero from defaults to the beginning of time, a zero
// to defaults to now. The entry list is snapshotted under the mutex and
// filtered outside it, so ongoing appends are blocked only for the
// copy.
func (e *Engine) Summary(from, to time.Time) (model.SummaryResponse, error) {
	fromMs := int64(0)
	if !from.IsZero() {
		fromMs = from.UnixMilli()
	}
	toMs := time.Now().UnixMilli()
	if !to.IsZero() {
		toMs = to.UnixMilli()
	}

	e.mu.Lock()
	entries := make([]uint64, len(e.entries))
	copy(entries, e.entries)
	providers := make([]model.Provider, len(e.providers))
	copy(providers, e.providers)
	e.mu.Unlock()

	var counts [model.ProviderCount]int64
	var cents [model.ProviderCount]int64
	for i, packed := range entries {
		c, ts := e.unpack(packed)
		if ts < fromMs || ts > toMs {
			continue
		}
		counts[providers[i]]++
		cents[providers[i]] += c
	}

	return model.SummaryResponse{
		Primary: model.ProviderSummary{
			TotalRequests: counts[model.ProviderPrimary],
			TotalAmount:   float64(cents[model.ProviderPrimary]) / 100,
		},
		Secondary: model.ProviderSummary{
			TotalRequests: counts[model.ProviderSecondary],
			TotalAmount:   float64(cents[model.ProviderSecondary]) / 100,
		},
	}, nil
}

// Purge irreversibly clears all entries and provider tags.
func (e *Engine) Purge() error {
	e.mu.Lock()
	e.entries = nil
	e.providers = nil
	e.mu.Unlock()
	return nil
}
