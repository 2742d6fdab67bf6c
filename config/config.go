package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP            HTTP
		Log             Log
		PG              PG
		S3              S3
		OutboxRelay     OutboxRelay
		Kafka           Kafka
		KafkaController KafkaController
		Ingest          Ingest
		Enrichment      Enrichment
		Captioner       Captioner
		Gallery         Gallery
		Metrics         Metrics
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		BodyLimit      int    `env:"HTTP_BODY_LIMIT" envDefault:"11534336"` // 11 MiB, a bit above the upload limit
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax        int    `env:"PG_POOL_MAX,required"`
		URL            string `env:"PG_URL,required"`
		MigrateOnStart bool   `env:"PG_MIGRATE_ON_START" envDefault:"true"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT"` // empty means AWS
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		AccessKey      string        `env:"S3_ACCESS_KEY"`
		SecretKey      string        `env:"S3_SECRET_KEY"`
		Bucket         string        `env:"S3_BUCKET,required"`
		PublicURL      string        `env:"S3_PUBLIC_URL"` // base for gallery links
		UsePathStyle   bool          `env:"S3_USE_PATH_STYLE" envDefault:"true"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Kafka struct {
		Brokers                []string `env:"KAFKA_BROKERS,required"`
		GroupID                string   `env:"KAFKA_GROUP_ID,required"`
		Topic                  string   `env:"KAFKA_TOPIC" envDefault:"caption.requested"`
		AllowAutoTopicCreation bool     `env:"KAFKA_ALLOW_AUTO_TOPIC_CREATION" envDefault:"false"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"2s"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"24h"`
		ReclaimInterval     time.Duration `env:"OUTBOX_RELAY_RECLAIM_INTERVAL" envDefault:"1m"`
		StaleAfter          time.Duration `env:"OUTBOX_RELAY_STALE_AFTER" envDefault:"10m"` // должно быть больше, чем все ретраи консьюмера
		Retention           time.Duration `env:"OUTBOX_RELAY_RETENTION" envDefault:"168h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"OUTBOX_RELAY_MAX_RETRIES" envDefault:"3"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"60s"` // загрузка оригинала, подпись, превью, запись в БД
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		Workers         int           `env:"KAFKA_CONTROLLER_WORKERS"` // 0 means runtime.NumCPU()
		MaxAttempts     int           `env:"KAFKA_CONTROLLER_MAX_ATTEMPTS" envDefault:"5"`
		RetryBackoff    time.Duration `env:"KAFKA_CONTROLLER_RETRY_BACKOFF" envDefault:"1s"`
	}

	Ingest struct {
		MaxFileSize      int64         `env:"INGEST_MAX_FILE_SIZE" envDefault:"10485760"`
		BlobWriteTimeout time.Duration `env:"INGEST_BLOB_WRITE_TIMEOUT" envDefault:"10s"`
		UniqueKeys       bool          `env:"INGEST_UNIQUE_KEYS" envDefault:"false"`
	}

	Enrichment struct {
		CaptionTimeout   time.Duration `env:"ENRICH_CAPTION_TIMEOUT" envDefault:"30s"`
		ThumbnailTimeout time.Duration `env:"ENRICH_THUMBNAIL_TIMEOUT" envDefault:"8s"`
		ThumbnailWidth   int           `env:"ENRICH_THUMBNAIL_WIDTH" envDefault:"300"`
		ThumbnailHeight  int           `env:"ENRICH_THUMBNAIL_HEIGHT" envDefault:"300"`
	}

	Captioner struct {
		APIKey        string `env:"OPENAI_API_KEY,required"`
		BaseURL       string `env:"OPENAI_BASE_URL"`
		Model         string `env:"CAPTIONER_MODEL" envDefault:"gpt-4o-mini"`
		Prompt        string `env:"CAPTIONER_PROMPT"`
		MaxTokens     int    `env:"CAPTIONER_MAX_TOKENS" envDefault:"60"`
		RatePerMinute int    `env:"CAPTIONER_RATE_PER_MINUTE" envDefault:"20"`
	}

	Gallery struct {
		PendingText string `env:"GALLERY_PENDING_TEXT" envDefault:"Caption pending…"`
		FailedText  string `env:"GALLERY_FAILED_TEXT" envDefault:"Caption unavailable"`
	}

	Metrics struct {
		Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
