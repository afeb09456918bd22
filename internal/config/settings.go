package config

import (
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"paygate/utils"
)

type Settings struct {
	Port      string
	StorePort string

	PrimaryURL   string
	SecondaryURL string
	StoreURL     string

	ProcessingBatchSize   int
	ProcessingMaxWait     time.Duration
	ProcessingParallelism int

	PersistenceBatchSize int
	PersistenceMaxWait   time.Duration

	RequestTimeout     time.Duration
	HealthRateLimit    time.Duration
	HealthProbeTimeout time.Duration

	AmountBits    uint
	TimestampBits uint
}

func Load() *Settings {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	return &Settings{
		Port:      utils.GetString("PORT", "9999"),
		StorePort: utils.GetString("STORE_PORT", "9998"),

		PrimaryURL:   utils.GetString("PROCESSOR_PRIMARY_URL", "http://localhost:8001"),
		SecondaryURL: utils.GetString("PROCESSOR_SECONDARY_URL", "http://localhost:8002"),
		StoreURL:     utils.GetString("STORE_URL", ""),

		ProcessingBatchSize:   utils.GetInt("PROCESSING_BATCH_SIZE", 100),
		ProcessingMaxWait:     millis("PROCESSING_MAX_WAIT_MS", 100),
		ProcessingParallelism: utils.GetInt("PROCESSING_PARALLELISM", 16),

		PersistenceBatchSize: utils.GetInt("PERSISTENCE_BATCH_SIZE", 200),
		PersistenceMaxWait:   millis("PERSISTENCE_MAX_WAIT_MS", 100),

		RequestTimeout:     millis("REQUEST_TIMEOUT_MS", 1500),
		HealthRateLimit:    millis("HEALTH_RATE_LIMIT_MS", 5000),
		HealthProbeTimeout: millis("HEALTH_PROBE_TIMEOUT_MS", 2000),

		AmountBits:    uint(utils.GetInt("STORE_AMOUNT_BITS", 32)),
		TimestampBits: uint(utils.GetInt("STORE_TIMESTAMP_BITS", 31)),
	}
}

func millis(key string, defaultValue int) time.Duration {
	return time.Duration(utils.GetInt(key, defaultValue)) * time.Millisecond
}
