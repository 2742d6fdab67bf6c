package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/google/uuid"
)

// CaptionRequested is the outbox payload that asks a worker to enrich one upload.
type CaptionRequested struct {
	ImageKey    string    `json:"image_key"`
	ContentType string    `json:"content_type"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewCaptionRequestedEvent builds a pending outbox event for record.
func NewCaptionRequestedEvent(record *entity.UploadRecord, requestedAt time.Time) (*entity.OutboxEvent, error) {
	b, err := json.Marshal(CaptionRequested{
		ImageKey:    record.ImageKey,
		ContentType: record.ContentType,
		RequestedAt: requestedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("dto - NewCaptionRequestedEvent - json.Marshal: %w", err)
	}

	return &entity.OutboxEvent{
		ID:           uuid.New(),
		AggregateKey: record.ImageKey,
		Payload:      b,
		Status:       entity.Pending,
		CreatedAt:    requestedAt,
	}, nil
}
