package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifies one of the two payment providers. Primary is the
// low-fee provider and is always tried first; Secondary is the costlier
// fallback.
type Provider uint8

const (
	ProviderPrimary Provider = iota
	ProviderSecondary

	ProviderCount = 2
)

func (p Provider) String() string {
	if p == ProviderSecondary {
		return "secondary"
	}
	return "primary"
}

func ParseProvider(s string) (Provider, error) {
	switch s {
	case "primary":
		return ProviderPrimary, nil
	case "secondary":
		return ProviderSecondary, nil
	}
	return 0, fmt.Errorf("unknown provider %q", s)
}

// PaymentSubmission is an accepted payment awaiting provider assignment.
// The intake queue owns it until dequeued; it is not retained after
// hand-off to the dispatcher.
type PaymentSubmission struct {
	CorrelationID string
	Amount        decimal.Decimal
}

// SettlementRecord is the fact that a submission was processed by a
// specific provider at a specific time.
type SettlementRecord struct {
	CorrelationID string
	Amount        decimal.Decimal
	Provider      Provider
	ProcessedAt   time.Time
}

// ProviderHealth is the cached result of the most recent health probe.
type ProviderHealth struct {
	Failing         bool
	MinResponseTime int
	ProbedAt        time.Time
}

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrAmountOutOfRange    = errors.New("amount out of range")
	ErrTimestampOutOfRange = errors.New("timestamp out of range")
)
