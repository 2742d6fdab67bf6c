package usecase

import (
	"context"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
)

type (
	IngestUseCase interface {
		Ingest(ctx context.Context, filename, contentType string, data []byte) (*entity.UploadRecord, error)
	}

	EnrichmentUseCase interface {
		// Enrich returns a non-nil error only when the record store failed or
		// ctx ended. Per-record failures are reported as entity.Failed, and a
		// run overtaken by a re-upload as entity.Pending.
		Enrich(ctx context.Context, imageKey string) (entity.Status, error)
	}

	GalleryUseCase interface {
		// List returns newest uploads first; limit 0 means all.
		List(ctx context.Context, limit int) ([]entity.GalleryItem, error)
	}

	OutboxUseCase interface {
		ClaimPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error
		IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		CleanupOutbox(ctx context.Context) error
		ReclaimStale(ctx context.Context) error
	}
)
