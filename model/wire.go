package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest is the body of POST /payments.
type PaymentRequest struct {
	CorrelationID string  `json:"correlationId"`
	Amount        float64 `json:"amount"`
}

// ProviderPaymentRequest is the body sent to a provider's /payments
// endpoint; providers echo the same shape back.
type ProviderPaymentRequest struct {
	CorrelationID string  `json:"correlationId"`
	Amount        float64 `json:"amount"`
	RequestedAt   string  `json:"requestedAt"`
}

// HealthResponse is a provider's /payments/service-health body.
type HealthResponse struct {
	Failing         bool `json:"failing"`
	MinResponseTime int  `json:"minResponseTime"`
}

type ProviderSummary struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalAmount   float64 `json:"totalAmount"`
}

type SummaryResponse struct {
	Primary   ProviderSummary `json:"primary"`
	Secondary ProviderSummary `json:"secondary"`
}

type PurgeConfirmation struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SettlementRecordDTO is the element shape of POST /payments/batch on
// the storage tier.
type SettlementRecordDTO struct {
	CorrelationID string    `json:"correlationId"`
	Amount        float64   `json:"amount"`
	Provider      string    `json:"provider"`
	ProcessedAt   time.Time `json:"processedAt"`
}

func (r SettlementRecord) DTO() SettlementRecordDTO {
	return SettlementRecordDTO{
		CorrelationID: r.CorrelationID,
		Amount:        r.Amount.InexactFloat64(),
		Provider:      r.Provider.String(),
		ProcessedAt:   r.ProcessedAt,
	}
}

func RecordFromDTO(dto SettlementRecordDTO) (SettlementRecord, error) {
	provider, err := ParseProvider(dto.Provider)
	if err != nil {
		return SettlementRecord{}, err
	}
	return SettlementRecord{
		CorrelationID: dto.CorrelationID,
		Amount:        decimal.NewFromFloat(dto.Amount),
		Provider:      provider,
		ProcessedAt:   dto.ProcessedAt,
	}, nil
}
