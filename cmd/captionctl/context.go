package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andreyxaxa/Image-Captioner/config"
	"github.com/andreyxaxa/Image-Captioner/internal/app"
	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase"
	"github.com/andreyxaxa/Image-Captioner/migrations"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/andreyxaxa/Image-Captioner/pkg/postgres"
	"github.com/joho/godotenv"
)

type pendingLister interface {
	ListPendingBefore(ctx context.Context, t time.Time, limit int) ([]*entity.UploadRecord, error)
}

type services struct {
	enrich  usecase.EnrichmentUseCase
	gallery usecase.GalleryUseCase
	records pendingLister
	close   func()
}

// commandContext builds collaborators lazily, so --help never needs a database.
type commandContext struct {
	envFile string

	loadServices func(ctx context.Context, cfg *config.Config) (*services, error)
	migrate      func(url string) (uint, error)
	loadConfig   func(envFile string) (*config.Config, error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		loadServices: buildServices,
		migrate: func(url string) (uint, error) {
			return postgres.Migrate(url, migrations.FS)
		},
		loadConfig: loadConfig,
	}
}

func loadConfig(envFile string) (*config.Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	stores, err := app.NewStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Progress goes to stdout as tables; logs only matter on errors.
	l := logger.NewWithWriter(cfg.Log.Level, io.Discard)
	if cfg.Log.Level == "debug" {
		l = logger.NewWithWriter("debug", os.Stderr)
	}

	return &services{
		enrich:  app.NewEnrichmentUseCase(cfg, stores, l),
		gallery: app.NewGalleryUseCase(cfg, stores),
		records: stores.Records,
		close:   stores.Close,
	}, nil
}

func (c *commandContext) services(ctx context.Context) (*services, error) {
	cfg, err := c.loadConfig(c.envFile)
	if err != nil {
		return nil, err
	}

	return c.loadServices(ctx, cfg)
}
