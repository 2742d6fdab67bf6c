package gallery

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/internal/repo"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
)

const (
	DefaultPendingText = "Caption pending…"
	DefaultFailedText  = "Caption unavailable"
)

type Option func(*UseCase)

func Placeholders(pending, failed string) Option {
	return func(uc *UseCase) {
		if pending != "" {
			uc.pendingText = pending
		}
		if failed != "" {
			uc.failedText = failed
		}
	}
}

type UseCase struct {
	records repo.RecordRepo
	blobs   repo.BlobRepo

	pendingText string
	failedText  string
}

func New(records repo.RecordRepo, blobs repo.BlobRepo, opts ...Option) *UseCase {
	uc := &UseCase{
		records:     records,
		blobs:       blobs,
		pendingText: DefaultPendingText,
		failedText:  DefaultFailedText,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// List never waits for enrichment: records without a caption get a placeholder.
func (uc *UseCase) List(ctx context.Context, limit int) ([]entity.GalleryItem, error) {
	records, err := uc.records.ListNewestFirst(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("GalleryUseCase - List - uc.records.ListNewestFirst: %w: %w", errs.ErrPersistence, err)
	}

	items := make([]entity.GalleryItem, 0, len(records))
	for _, r := range records {
		items = append(items, uc.toItem(r))
	}

	return items, nil
}

func (uc *UseCase) toItem(r *entity.UploadRecord) entity.GalleryItem {
	// the thumbnail URL is derived for every record; its blob exists once Ready
	item := entity.GalleryItem{
		ImageKey:     r.ImageKey,
		ImageURL:     uc.blobs.URLFor(r.ImageKey),
		ThumbnailURL: uc.blobs.URLFor(r.ThumbnailKey()),
		Status:       r.Status,
		UploadedAt:   r.UploadedAt,
	}

	switch r.Status {
	case entity.Ready:
		item.Caption = r.Caption
	case entity.Failed:
		item.Caption = uc.failedText
	default:
		item.Caption = uc.pendingText
	}

	return item
}
