package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"paygate/handler"
	"paygate/internal/config"
	"paygate/internal/dispatch"
	"paygate/internal/health"
	"paygate/internal/persist"
	"paygate/internal/provider"
	"paygate/internal/queue"
	"paygate/internal/router"
	"paygate/internal/store"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelInfo)

	settings := config.Load()

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        512,
			MaxIdleConnsPerHost: 128,
			IdleConnTimeout:     120 * time.Second,
			MaxConnsPerHost:     512,
			DialContext: (&net.Dialer{
				Timeout:   time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	var (
		persistStore persist.Store
		queryStore   handler.Store
	)
	if settings.StoreURL != "" {
		remote := store.NewRemoteStore(settings.StoreURL, httpClient, 2*time.Second)
		persistStore, queryStore = remote, remote
		slog.Info("using remote store", "url", settings.StoreURL)
	} else {
		engine, err := store.NewEngine(settings.AmountBits, settings.TimestampBits)
		if err != nil {
			slog.Error("failed to create storage engine", "err", err)
			os.Exit(1)
		}
		persistStore, queryStore = engine, engine
	}

	providers := provider.NewClient(httpClient, settings.PrimaryURL, settings.SecondaryURL, settings.RequestTimeout)
	monitor := health.NewMonitor(httpClient, settings.PrimaryURL, settings.SecondaryURL, settings.HealthRateLimit, settings.HealthProbeTimeout)
	paymentRouter := router.New(providers, monitor)

	intake := queue.NewIntakeQueue()
	batcher := persist.NewBatcher(persistStore, settings.PersistenceBatchSize, settings.PersistenceMaxWait)
	dispatcher := dispatch.New(intake, paymentRouter, batcher,
		settings.ProcessingBatchSize, settings.ProcessingMaxWait, settings.ProcessingParallelism)

	ctx, cancel := context.WithCancel(context.Background())
	go batcher.Run(ctx)
	go dispatcher.Run(ctx)

	paymentHandler := handler.NewPaymentHandler(intake, queryStore)

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})
	app.Post("/payments", paymentHandler.Submit)
	app.Get("/payments-summary", paymentHandler.Summary)
	app.Post("/purge-payments", paymentHandler.Purge)

	go func() {
		slog.Info("gateway listening", "port", settings.Port)
		if err := app.Listen(":" + settings.Port); err != nil {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	_ = app.ShutdownWithTimeout(2 * time.Second)
	cancel()
	dispatcher.Wait()
}
