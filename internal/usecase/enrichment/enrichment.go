package enrichment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/internal/infrastructure"
	"github.com/andreyxaxa/Image-Captioner/internal/repo"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	_defaultCaptionTimeout   = 30 * time.Second
	_defaultThumbnailTimeout = 8 * time.Second
)

var (
	enrichmentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captioner_enrichment_total",
			Help: "Enrichment attempts by resulting status and failure reason.",
		},
		[]string{"status", "reason"},
	)

	captionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "captioner_caption_duration_seconds",
		Help:    "Latency of caption generator calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	})
)

type UseCase struct {
	blobs       repo.BlobRepo
	records     repo.RecordRepo
	captioner   infrastructure.CaptionGenerator
	thumbnailer infrastructure.ThumbnailGenerator

	captionTimeout   time.Duration
	thumbnailTimeout time.Duration

	logger logger.Interface
}

func New(
	blobs repo.BlobRepo,
	records repo.RecordRepo,
	captioner infrastructure.CaptionGenerator,
	thumbnailer infrastructure.ThumbnailGenerator,
	l logger.Interface,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		blobs:            blobs,
		records:          records,
		captioner:        captioner,
		thumbnailer:      thumbnailer,
		captionTimeout:   _defaultCaptionTimeout,
		thumbnailTimeout: _defaultThumbnailTimeout,
		logger:           l,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Enrich captions one upload and writes its thumbnail. Running it again for
// the same key overwrites the same fields with equivalent values.
//
// The result belongs to the upload loaded at the start. When the key is
// re-uploaded meanwhile nothing is written and Pending is returned: the newer
// upload has its own event.
func (uc *UseCase) Enrich(ctx context.Context, imageKey string) (entity.Status, error) {
	// 1. запись должна уже существовать
	record, err := uc.records.GetByKey(ctx, imageKey)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return "", fmt.Errorf("EnrichmentUseCase - Enrich - uc.records.GetByKey: %w", err)
		}

		return "", fmt.Errorf("EnrichmentUseCase - Enrich - uc.records.GetByKey: %w: %w", errs.ErrPersistence, err)
	}

	thumbKey := record.ThumbnailKey()

	// 2. повторная доставка уже обработанного события
	if record.Status == entity.Ready {
		exists, err := uc.blobs.Exists(ctx, thumbKey)
		if err == nil && exists {
			enrichmentTotal.WithLabelValues(string(entity.Ready), "already_ready").Inc()

			return entity.Ready, nil
		}
	}

	// 3. оригинал
	data, err := uc.blobs.Get(ctx, imageKey)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("EnrichmentUseCase - Enrich - uc.blobs.Get: %w", err)
		}

		return uc.fail(ctx, record, entity.ReasonBlobUnavailable, err)
	}

	// 4. подпись
	caption, err := uc.generateCaption(ctx, data, record.ContentType)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("EnrichmentUseCase - Enrich - uc.generateCaption: %w", err)
		}

		return uc.fail(ctx, record, entity.ReasonCaptionFailed, err)
	}

	// 5. превью
	err = uc.writeThumbnail(ctx, record, data)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("EnrichmentUseCase - Enrich - uc.writeThumbnail: %w", err)
		}

		return uc.fail(ctx, record, entity.ReasonThumbnailFailed, err)
	}

	// 6. caption и статус одним UPDATE, только для той же загрузки
	err = uc.records.MarkReady(ctx, imageKey, record.Seq, caption)
	if err != nil {
		if errors.Is(err, errs.ErrSuperseded) {
			return uc.superseded(record), nil
		}

		return "", fmt.Errorf("EnrichmentUseCase - Enrich - uc.records.MarkReady: %w: %w", errs.ErrPersistence, err)
	}

	enrichmentTotal.WithLabelValues(string(entity.Ready), "").Inc()

	return entity.Ready, nil
}

func (uc *UseCase) generateCaption(ctx context.Context, data []byte, contentType string) (string, error) {
	captionCtx, cancel := context.WithTimeout(ctx, uc.captionTimeout)
	defer cancel()

	start := time.Now()
	caption, err := uc.captioner.GenerateCaption(captionCtx, data, contentType)
	captionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("EnrichmentUseCase - generateCaption - uc.captioner.GenerateCaption: %w", err)
	}

	caption = strings.TrimSpace(caption)
	if caption == "" {
		return "", fmt.Errorf("EnrichmentUseCase - generateCaption: empty caption: %w", errs.ErrEnrichment)
	}

	return caption, nil
}

func (uc *UseCase) writeThumbnail(ctx context.Context, record *entity.UploadRecord, data []byte) error {
	cpuCtx, cancel := context.WithTimeout(ctx, uc.thumbnailTimeout)
	thumb, err := uc.thumbnailer.Thumbnail(cpuCtx, record.ContentType, data)
	cancel()
	if err != nil {
		return fmt.Errorf("EnrichmentUseCase - writeThumbnail - uc.thumbnailer.Thumbnail: %w", err)
	}

	err = uc.blobs.Put(ctx, record.ThumbnailKey(), thumb, http.DetectContentType(thumb))
	if err != nil {
		return fmt.Errorf("EnrichmentUseCase - writeThumbnail - uc.blobs.Put: %w", err)
	}

	return nil
}

// fail records a per-record failure. A READY record is never downgraded, so
// the returned status is whatever the store kept.
func (uc *UseCase) fail(ctx context.Context, record *entity.UploadRecord, reason string, cause error) (entity.Status, error) {
	uc.logger.Warn("enrichment failed: key=%s, reason=%s, error=%v", record.ImageKey, reason, cause)

	status, err := uc.records.MarkFailed(ctx, record.ImageKey, record.Seq, reason)
	if err != nil {
		if errors.Is(err, errs.ErrSuperseded) {
			return uc.superseded(record), nil
		}

		return "", fmt.Errorf("EnrichmentUseCase - fail - uc.records.MarkFailed: %w: %w", errs.ErrPersistence, err)
	}

	enrichmentTotal.WithLabelValues(string(status), reason).Inc()

	return status, nil
}

func (uc *UseCase) superseded(record *entity.UploadRecord) entity.Status {
	uc.logger.Info("enrichment dropped: key=%s was re-uploaded during the run", record.ImageKey)
	enrichmentTotal.WithLabelValues(string(entity.Pending), "superseded").Inc()

	return entity.Pending
}
