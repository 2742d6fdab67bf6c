package infrastructure

import (
	"context"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/segmentio/kafka-go"
)

type (
	EventsSender interface {
		SendEvents(ctx context.Context, events []*entity.OutboxEvent) error
		Close() error
	}

	EventsReceiver interface {
		ReadEvent(ctx context.Context) (kafka.Message, error)
		CommitEvent(ctx context.Context, event kafka.Message) error
		Close() error
	}

	// CaptionGenerator describes an image in one sentence. It is slow and may fail.
	CaptionGenerator interface {
		GenerateCaption(ctx context.Context, image []byte, contentType string) (string, error)
	}

	ThumbnailGenerator interface {
		Thumbnail(ctx context.Context, contentType string, data []byte) ([]byte, error)
	}
)
