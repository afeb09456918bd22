package main

import (
	"log/slog"
	"os"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"paygate/handler"
	"paygate/internal/config"
	"paygate/internal/store"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelInfo)

	settings := config.Load()

	engine, err := store.NewEngine(settings.AmountBits, settings.TimestampBits)
	if err != nil {
		slog.Error("failed to create storage engine", "err", err)
		os.Exit(1)
	}

	storeHandler := handler.NewStoreHandler(engine)

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})
	app.Post("/payments/batch", storeHandler.InsertBatch)
	app.Get("/payments-summary", storeHandler.Summary)
	app.Delete("/admin/purge", storeHandler.Purge)

	slog.Info("store listening", "port", settings.StorePort)
	if err := app.Listen(":" + settings.StorePort); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
