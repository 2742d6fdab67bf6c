package repo

import (
	"context"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/google/uuid"
)

type (
	// BlobRepo stores originals and thumbnails by key.
	BlobRepo interface {
		Put(ctx context.Context, key string, data []byte, contentType string) error
		Get(ctx context.Context, key string) ([]byte, error)
		Exists(ctx context.Context, key string) (bool, error)
		URLFor(key string) string
	}

	RecordRepo interface {
		// Upsert inserts a pending record, or resets an existing one with the same key.
		Upsert(ctx context.Context, record *entity.UploadRecord) error
		GetByKey(ctx context.Context, imageKey string) (*entity.UploadRecord, error)
		// MarkReady and MarkFailed only touch the upload identified by seq and
		// return errs.ErrSuperseded once the key was re-uploaded.
		MarkReady(ctx context.Context, imageKey string, seq int64, caption string) error
		// MarkFailed returns the status left in the store: Ready when an
		// earlier run already succeeded.
		MarkFailed(ctx context.Context, imageKey string, seq int64, reason string) (entity.Status, error)
		// ListNewestFirst orders by uploaded_at, then seq, descending. limit 0 means all.
		ListNewestFirst(ctx context.Context, limit int) ([]*entity.UploadRecord, error)
		// ListPendingBefore returns the oldest pending records uploaded before t.
		ListPendingBefore(ctx context.Context, t time.Time, limit int) ([]*entity.UploadRecord, error)
	}

	OutboxRepo interface {
		Create(ctx context.Context, event *entity.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int, maxRetries int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (int64, error)
		DeleteProcessedAndFailed(ctx context.Context, olderThan time.Time) (int64, error)
		// ResetStaleProcessing returns events claimed before olderThan to pending.
		ResetStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)
		// HasActiveEvent reports a pending or processing event for the key.
		HasActiveEvent(ctx context.Context, aggregateKey string) (bool, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
