package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/andreyxaxa/Image-Captioner/config"
	kafkactrl "github.com/andreyxaxa/Image-Captioner/internal/controller/kafka"
	"github.com/andreyxaxa/Image-Captioner/internal/controller/restapi"
	"github.com/andreyxaxa/Image-Captioner/internal/controller/worker/outbox"
	infrakafka "github.com/andreyxaxa/Image-Captioner/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase/ingest"
	outboxuc "github.com/andreyxaxa/Image-Captioner/internal/usecase/outbox"
	"github.com/andreyxaxa/Image-Captioner/migrations"
	"github.com/andreyxaxa/Image-Captioner/pkg/httpserver"
	"github.com/andreyxaxa/Image-Captioner/pkg/kafka/consumer"
	"github.com/andreyxaxa/Image-Captioner/pkg/kafka/producer"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/andreyxaxa/Image-Captioner/pkg/postgres"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Migrations
	if cfg.PG.MigrateOnStart {
		version, err := postgres.Migrate(cfg.PG.URL, migrations.FS)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - postgres.Migrate: %w", err))
		}
		l.Info("app - Run - schema version %d", version)
	}

	// Repository
	stores, err := NewStores(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - NewStores: %w", err))
	}
	defer stores.Close()

	// Use-Case
	ingestUseCase := ingest.New(
		stores.Blobs,
		stores.Records,
		stores.Outbox,
		stores.PG,
		l,
		ingest.MaxFileSize(cfg.Ingest.MaxFileSize),
		ingest.BlobWriteTimeout(cfg.Ingest.BlobWriteTimeout),
		ingest.UniqueKeys(cfg.Ingest.UniqueKeys),
	)
	enrichmentUseCase := NewEnrichmentUseCase(cfg, stores, l)
	galleryUseCase := NewGalleryUseCase(cfg, stores)
	outboxUseCase := outboxuc.New(stores.Outbox, stores.Records, stores.PG, l,
		outboxuc.Retention(cfg.OutboxRelay.Retention),
		outboxuc.StaleAfter(cfg.OutboxRelay.StaleAfter),
		outboxuc.ReclaimLimit(cfg.OutboxRelay.BatchSize),
	)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers,
		producer.AllowAutoTopicCreation(cfg.Kafka.AllowAutoTopicCreation),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(
		outboxUseCase,
		infrakafka.NewEventProducer(kafkaProducer, cfg.Kafka.Topic),
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.CleanupInterval,
		cfg.OutboxRelay.MarkFailedInterval,
		cfg.OutboxRelay.ReclaimInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
		cfg.OutboxRelay.BatchSize,
		cfg.OutboxRelay.MaxRetries,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
	}

	workers := cfg.KafkaController.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		enrichmentUseCase,
		infrakafka.NewEventConsumer(kafkaConsumer),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		workers,
		kafkactrl.MaxAttempts(cfg.KafkaController.MaxAttempts),
		kafkactrl.RetryBackoff(cfg.KafkaController.RetryBackoff),
	)

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.BodyLimit(cfg.HTTP.BodyLimit),
	)
	restapi.NewRouter(httpServer.App, restapi.Options{
		MetricsEnabled: cfg.Metrics.Enabled,
		Ready:          stores.PG,
	}, ingestUseCase, galleryUseCase, l)

	// Start Components
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - outboxRelayWorker.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer orlShutdownCancel()
	err = outboxRelayWorker.Shutdown(orlShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - outboxRelayWorker.Shutdown: %w", err))
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer kcShutdownCancel()
	err = kafkaController.Shutdown(kcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - kafkaController.Shutdown: %w", err))
	}
}
