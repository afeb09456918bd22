package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"paygate/internal/store"
	"paygate/model"
)

// StoreHandler exposes the packed in-memory engine when the storage
// tier runs as its own process.
type StoreHandler struct {
	engine *store.Engine
}

func NewStoreHandler(engine *store.Engine) *StoreHandler {
	return &StoreHandler{engine: engine}
}

func (h *StoreHandler) InsertBatch(c *fiber.Ctx) error {
	var dtos []model.SettlementRecordDTO
	if err := sonic.Unmarshal(c.Body(), &dtos); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	records := make([]model.SettlementRecord, len(dtos))
	for i, dto := range dtos {
		rec, err := model.RecordFromDTO(dto)
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		records[i] = rec
	}

	if err := h.engine.InsertBatch(records); err != nil {
		if errors.Is(err, model.ErrAmountOutOfRange) || errors.Is(err, model.ErrTimestampOutOfRange) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("batch insert failed", "records", len(records), "err", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *StoreHandler) Summary(c *fiber.Ctx) error {
	from := parseTime(c.Query("from"))
	to := parseTime(c.Query("to"))

	summary, err := h.engine.Summary(from, to)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(summary)
}

func (h *StoreHandler) Purge(c *fiber.Ctx) error {
	if err := h.engine.Purge(); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(model.PurgeConfirmation{
		Message:   "store purged",
		Timestamp: time.Now().UTC(),
	})
}
