package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
	"github.com/google/uuid"
)

type OutboxRepo struct {
	mu     sync.Mutex
	events []*entity.OutboxEvent

	// CreateErr, when set, is returned by Create.
	CreateErr error
}

func NewOutboxRepo() *OutboxRepo {
	return &OutboxRepo{}
}

func (r *OutboxRepo) Create(_ context.Context, event *entity.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return fmt.Errorf("memory.OutboxRepo - Create: %w", r.CreateErr)
	}

	cp := *event
	r.events = append(r.events, &cp)

	return nil
}

func (r *OutboxRepo) GetPendingEvents(_ context.Context, limit int, maxRetries int) ([]*entity.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.OutboxEvent
	for _, e := range r.events {
		if len(out) == limit {
			break
		}
		if e.Status == entity.Pending && e.RetryCount < maxRetries {
			cp := *e
			out = append(out, &cp)
		}
	}

	return out, nil
}

// MarkAsProcessingBatch stamps ProcessedAt with the claim time, as the
// postgres repo does.
func (r *OutboxRepo) MarkAsProcessingBatch(_ context.Context, IDs uuid.UUIDs) error {
	now := time.Now()

	return r.update(IDs, func(e *entity.OutboxEvent) {
		e.Status = entity.Processing
		e.ProcessedAt = &now
	})
}

func (r *OutboxRepo) MarkAsProcessedBatch(_ context.Context, IDs uuid.UUIDs) error {
	now := time.Now()

	return r.update(IDs, func(e *entity.OutboxEvent) {
		e.Status = entity.Processed
		e.ProcessedAt = &now
	})
}

func (r *OutboxRepo) IncrementRetryCountBatch(_ context.Context, IDs uuid.UUIDs) error {
	return r.update(IDs, func(e *entity.OutboxEvent) {
		e.RetryCount++
		e.Status = entity.Pending
	})
}

func (r *OutboxRepo) MarkMaxRetriesAsFailed(_ context.Context, maxRetries int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, e := range r.events {
		if e.Status == entity.Pending && e.RetryCount >= maxRetries {
			e.Status = entity.Failed
			n++
		}
	}

	return n, nil
}

func (r *OutboxRepo) DeleteProcessedAndFailed(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.events)
	r.events = slices.DeleteFunc(r.events, func(e *entity.OutboxEvent) bool {
		return (e.Status == entity.Processed || e.Status == entity.Failed) && e.CreatedAt.Before(olderThan)
	})

	return int64(before - len(r.events)), nil
}

func (r *OutboxRepo) ResetStaleProcessing(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, e := range r.events {
		if e.Status == entity.Processing && e.ProcessedAt != nil && e.ProcessedAt.Before(olderThan) {
			e.Status = entity.Pending
			e.ProcessedAt = nil
			n++
		}
	}

	return n, nil
}

func (r *OutboxRepo) HasActiveEvent(_ context.Context, aggregateKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.AggregateKey == aggregateKey && (e.Status == entity.Pending || e.Status == entity.Processing) {
			return true, nil
		}
	}

	return false, nil
}

// Events returns a snapshot of every stored event.
func (r *OutboxRepo) Events() []entity.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.OutboxEvent, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, *e)
	}

	return out
}

func (r *OutboxRepo) update(IDs uuid.UUIDs, f func(*entity.OutboxEvent)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, e := range r.events {
		if slices.Contains(IDs, e.ID) {
			f(e)
			n++
		}
	}

	if n == 0 {
		return fmt.Errorf("memory.OutboxRepo - update: %w", errs.ErrRecordNotFound)
	}

	return nil
}
