package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andreyxaxa/Image-Captioner/config"
	"github.com/andreyxaxa/Image-Captioner/internal/infrastructure/captioner"
	"github.com/andreyxaxa/Image-Captioner/internal/infrastructure/processor"
	"github.com/andreyxaxa/Image-Captioner/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase/enrichment"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase/gallery"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/andreyxaxa/Image-Captioner/pkg/postgres"
	"github.com/andreyxaxa/Image-Captioner/pkg/s3client"
)

// Stores are the Postgres and S3 backed repositories shared by the service
// and captionctl.
type Stores struct {
	PG      *postgres.Postgres
	Blobs   *persistent.BlobRepo
	Records *persistent.RecordRepo
	Outbox  *persistent.OutboxRepo
}

func NewStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3client.Region(cfg.S3.Region),
		s3client.UsePathStyle(cfg.S3.UsePathStyle),
		s3client.CheckBucket(cfg.S3.Bucket),
	)
	if err != nil {
		return nil, fmt.Errorf("app - NewStores - s3client.New: %w", err)
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		return nil, fmt.Errorf("app - NewStores - postgres.New: %w", err)
	}

	return &Stores{
		PG:      pg,
		Blobs:   persistent.NewBlobRepo(s3c, cfg.S3.Bucket, cfg.S3.PublicURL),
		Records: persistent.NewRecordRepo(pg),
		Outbox:  persistent.NewOutboxRepo(pg),
	}, nil
}

func (s *Stores) Close() {
	s.PG.Close()
}

func NewEnrichmentUseCase(cfg *config.Config, s *Stores, l logger.Interface) *enrichment.UseCase {
	capt := captioner.New(captioner.Config{
		APIKey:        cfg.Captioner.APIKey,
		BaseURL:       cfg.Captioner.BaseURL,
		Model:         cfg.Captioner.Model,
		Prompt:        cfg.Captioner.Prompt,
		MaxTokens:     cfg.Captioner.MaxTokens,
		RatePerMinute: cfg.Captioner.RatePerMinute,
		HTTPClient:    &http.Client{},
	})

	return enrichment.New(
		s.Blobs,
		s.Records,
		capt,
		processor.New(processor.Size(cfg.Enrichment.ThumbnailWidth, cfg.Enrichment.ThumbnailHeight)),
		l,
		enrichment.CaptionTimeout(cfg.Enrichment.CaptionTimeout),
		enrichment.ThumbnailTimeout(cfg.Enrichment.ThumbnailTimeout),
	)
}

func NewGalleryUseCase(cfg *config.Config, s *Stores) *gallery.UseCase {
	return gallery.New(s.Records, s.Blobs, gallery.Placeholders(cfg.Gallery.PendingText, cfg.Gallery.FailedText))
}
