package entity

import (
	"time"

	"github.com/google/uuid"
)

type OutboxEvent struct {
	ID           uuid.UUID  `json:"id"`
	AggregateKey string     `json:"aggregate_key"` // image key
	Payload      []byte     `json:"payload"`
	Status       Status     `json:"status"` // pending, processing, processed, failed
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	RetryCount   int        `json:"retry_count"`
}
