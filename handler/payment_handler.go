package handler

import (
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"paygate/internal/queue"
	"paygate/model"
)

// Store is the query surface the gateway needs from the storage tier,
// satisfied by both the in-process engine and the remote store client.
type Store interface {
	Summary(from, to time.Time) (model.SummaryResponse, error)
	Purge() error
}

type PaymentHandler struct {
	queue *queue.IntakeQueue
	store Store
}

func NewPaymentHandler(q *queue.IntakeQueue, store Store) *PaymentHandler {
	return &PaymentHandler{queue: q, store: store}
}

// Submit acknowledges the caller immediately; the outcome of provider
// routing is never reported back.
func (h *PaymentHandler) Submit(c *fiber.Ctx) error {
	var req model.PaymentRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil || req.CorrelationID == "" || req.Amount <= 0 {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	h.queue.Enqueue(model.PaymentSubmission{
		CorrelationID: req.CorrelationID,
		Amount:        decimal.NewFromFloat(req.Amount),
	})
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *PaymentHandler) Summary(c *fiber.Ctx) error {
	from := parseTime(c.Query("from"))
	to := parseTime(c.Query("to"))

	summary, err := h.store.Summary(from, to)
	if err != nil {
		slog.Error("summary query failed", "err", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(summary)
}

func (h *PaymentHandler) Purge(c *fiber.Ctx) error {
	if err := h.store.Purge(); err != nil {
		slog.Error("purge failed", "err", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(model.PurgeConfirmation{
		Message:   "all payments purged",
		Timestamp: time.Now().UTC(),
	})
}

// parseTime returns the zero time for absent or malformed values, which
// the store treats as an open bound.
func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
