package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/dto"
	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/internal/repo"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/google/uuid"
)

const (
	_defaultRetention    = 7 * 24 * time.Hour
	_defaultStaleAfter   = 10 * time.Minute
	_defaultReclaimLimit = 100
)

type UseCase struct {
	outbox     repo.OutboxRepo
	records    repo.RecordRepo
	transactor repo.Transactor

	retention    time.Duration
	staleAfter   time.Duration
	reclaimLimit int
	now          func() time.Time

	logger logger.Interface
}

func New(
	outbox repo.OutboxRepo,
	records repo.RecordRepo,
	transactor repo.Transactor,
	l logger.Interface,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		outbox:       outbox,
		records:      records,
		transactor:   transactor,
		retention:    _defaultRetention,
		staleAfter:   _defaultStaleAfter,
		reclaimLimit: _defaultReclaimLimit,
		now:          time.Now,
		logger:       l,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ClaimPendingEvents selects and marks a batch as processing in one
// transaction, so concurrent relays never publish the same event twice.
func (uc *UseCase) ClaimPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	var events []*entity.OutboxEvent

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error

		events, err = uc.outbox.GetPendingEvents(ctx, limit, maxRetries)
		if err != nil {
			return fmt.Errorf("OutboxUseCase - ClaimPendingEvents - uc.outbox.GetPendingEvents: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		err = uc.outbox.MarkAsProcessingBatch(ctx, ids(events))
		if err != nil {
			return fmt.Errorf("OutboxUseCase - ClaimPendingEvents - uc.outbox.MarkAsProcessingBatch: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range events {
		e.Status = entity.Processing
	}

	return events, nil
}

func (uc *UseCase) MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outbox.MarkAsProcessedBatch(ctx, ids(events))
	if err != nil {
		return fmt.Errorf("OutboxUseCase - MarkAsProcessedBatch - uc.outbox.MarkAsProcessedBatch: %w", err)
	}

	return nil
}

// IncrementRetryCountBatch also returns the events to pending.
func (uc *UseCase) IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outbox.IncrementRetryCountBatch(ctx, ids(events))
	if err != nil {
		return fmt.Errorf("OutboxUseCase - IncrementRetryCountBatch - uc.outbox.IncrementRetryCountBatch: %w", err)
	}

	return nil
}

func (uc *UseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	count, err := uc.outbox.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - MarkMaxRetriesAsFailed - uc.outbox.MarkMaxRetriesAsFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Warn("outbox events gave up after %d retries, count = %d", maxRetries, count)
	}

	return nil
}

func (uc *UseCase) CleanupOutbox(ctx context.Context) error {
	count, err := uc.outbox.DeleteProcessedAndFailed(ctx, uc.now().Add(-uc.retention))
	if err != nil {
		return fmt.Errorf("OutboxUseCase - CleanupOutbox - uc.outbox.DeleteProcessedAndFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Info("deleted old events, count = %d", count)
	}

	return nil
}

// ReclaimStale repairs work lost between the outbox and the enrichment
// worker. Events claimed longer than the stale window ago go back to pending,
// and records still pending after it get a fresh event unless one is queued.
func (uc *UseCase) ReclaimStale(ctx context.Context) error {
	cutoff := uc.now().Add(-uc.staleAfter)

	// 1. события, зависшие в processing
	count, err := uc.outbox.ResetStaleProcessing(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - ReclaimStale - uc.outbox.ResetStaleProcessing: %w", err)
	}
	if count > 0 {
		uc.logger.Warn("outbox events stuck in processing returned to pending, count = %d", count)
	}

	// 2. записи, которые так и не обработались
	records, err := uc.records.ListPendingBefore(ctx, cutoff, uc.reclaimLimit)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - ReclaimStale - uc.records.ListPendingBefore: %w", err)
	}

	var requeued int
	for _, record := range records {
		active, err := uc.outbox.HasActiveEvent(ctx, record.ImageKey)
		if err != nil {
			return fmt.Errorf("OutboxUseCase - ReclaimStale - uc.outbox.HasActiveEvent: %w", err)
		}
		if active {
			continue
		}

		event, err := dto.NewCaptionRequestedEvent(record, uc.now().UTC())
		if err != nil {
			return fmt.Errorf("OutboxUseCase - ReclaimStale - dto.NewCaptionRequestedEvent: %w", err)
		}

		err = uc.outbox.Create(ctx, event)
		if err != nil {
			return fmt.Errorf("OutboxUseCase - ReclaimStale - uc.outbox.Create: %w", err)
		}
		requeued++
	}

	if requeued > 0 {
		uc.logger.Warn("requeued enrichment for stale pending records, count = %d", requeued)
	}

	return nil
}

func ids(events []*entity.OutboxEvent) uuid.UUIDs {
	IDs := make(uuid.UUIDs, 0, len(events))
	for _, event := range events {
		IDs = append(IDs, event.ID)
	}

	return IDs
}
