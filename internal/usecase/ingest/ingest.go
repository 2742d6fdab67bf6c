package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/dto"
	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/internal/repo"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	_defaultBlobWriteTimeout       = 10 * time.Second
	_defaultMaxFileSize      int64 = 10 * 1024 * 1024
)

var (
	ErrEmptyFile    = fmt.Errorf("file is empty: %w", errs.ErrValidation)
	ErrFileTooLarge = fmt.Errorf("file too large: %w", errs.ErrValidation)
)

var ingestTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "captioner_ingest_total",
		Help: "Uploads handled by the ingest use-case, by result.",
	},
	[]string{"result"},
)

type UseCase struct {
	blobs      repo.BlobRepo
	records    repo.RecordRepo
	outbox     repo.OutboxRepo
	transactor repo.Transactor

	now              func() time.Time
	uniqueKeys       bool
	blobWriteTimeout time.Duration
	maxFileSize      int64

	logger logger.Interface
}

func New(
	blobs repo.BlobRepo,
	records repo.RecordRepo,
	outbox repo.OutboxRepo,
	transactor repo.Transactor,
	l logger.Interface,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		blobs:            blobs,
		records:          records,
		outbox:           outbox,
		transactor:       transactor,
		now:              time.Now,
		blobWriteTimeout: _defaultBlobWriteTimeout,
		maxFileSize:      _defaultMaxFileSize,
		logger:           l,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Ingest stores the original, then records it as pending and queues its
// enrichment in one transaction. It never waits for a caption.
func (uc *UseCase) Ingest(ctx context.Context, filename, contentType string, data []byte) (*entity.UploadRecord, error) {
	record, err := uc.ingest(ctx, filename, contentType, data)
	ingestTotal.WithLabelValues(resultLabel(err)).Inc()

	return record, err
}

func (uc *UseCase) ingest(ctx context.Context, filename, contentType string, data []byte) (*entity.UploadRecord, error) {
	// 1. валидация
	if len(data) == 0 {
		return nil, fmt.Errorf("IngestUseCase - Ingest: %w", ErrEmptyFile)
	}
	if uc.maxFileSize > 0 && int64(len(data)) > uc.maxFileSize {
		return nil, fmt.Errorf("IngestUseCase - Ingest - %d bytes: %w", len(data), ErrFileTooLarge)
	}

	name, err := entity.SanitizeFilename(filename)
	if err != nil {
		return nil, fmt.Errorf("IngestUseCase - Ingest - entity.SanitizeFilename: %w", err)
	}
	if uc.uniqueKeys {
		name = uuid.NewString() + "-" + name
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	record := &entity.UploadRecord{
		ImageKey:    entity.OriginalKey(name),
		Status:      entity.Pending,
		ContentType: contentType,
		Size:        int64(len(data)),
		UploadedAt:  uc.now().UTC(),
	}

	// 2. оригинал в хранилище
	putCtx, putCancel := context.WithTimeout(ctx, uc.blobWriteTimeout)
	err = uc.blobs.Put(putCtx, record.ImageKey, data, contentType)
	putCancel()
	if err != nil {
		return nil, fmt.Errorf("IngestUseCase - Ingest - uc.blobs.Put: %w: %w", errs.ErrStorage, err)
	}

	event, err := dto.NewCaptionRequestedEvent(record, record.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("IngestUseCase - Ingest - dto.NewCaptionRequestedEvent: %w", err)
	}

	// 3. запись и событие в одной транзакции
	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.records.Upsert(ctx, record); err != nil {
			return fmt.Errorf("IngestUseCase - Ingest - uc.records.Upsert: %w", err)
		}

		if err := uc.outbox.Create(ctx, event); err != nil {
			return fmt.Errorf("IngestUseCase - Ingest - uc.outbox.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		// The blob stays: under a colliding key it may belong to an earlier upload.
		uc.logger.Warn("ingest: blob %s stored without a record", record.ImageKey)

		return nil, fmt.Errorf("IngestUseCase - Ingest - uc.transactor.WithinTransaction: %w: %w", errs.ErrPersistence, err)
	}

	return record, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrValidation):
		return "invalid"
	case errors.Is(err, errs.ErrStorage):
		return "storage_error"
	case errors.Is(err, errs.ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}
