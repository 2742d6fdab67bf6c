package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/infrastructure"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var publishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "captioner_outbox_published_total",
		Help: "Outbox events handed to the broker, by result.",
	},
	[]string{"result"},
)

type OutboxRelay struct {
	ob     usecase.OutboxUseCase
	es     infrastructure.EventsSender
	logger logger.Interface

	pollInterval        time.Duration
	cleanupInterval     time.Duration
	markFailedInterval  time.Duration
	reclaimInterval     time.Duration
	processBatchTimeout time.Duration
	batchSize           int
	maxRetries          int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	ob usecase.OutboxUseCase,
	es infrastructure.EventsSender,
	l logger.Interface,
	pollInterval time.Duration,
	cleanupInterval time.Duration,
	markFailedInterval time.Duration,
	reclaimInterval time.Duration,
	processBatchTimeout time.Duration,
	batchSize int,
	maxRetries int,
) *OutboxRelay {
	return &OutboxRelay{
		ob:                  ob,
		es:                  es,
		logger:              l,
		pollInterval:        pollInterval,
		cleanupInterval:     cleanupInterval,
		markFailedInterval:  markFailedInterval,
		reclaimInterval:     reclaimInterval,
		processBatchTimeout: processBatchTimeout,
		batchSize:           batchSize,
		maxRetries:          maxRetries,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("OutboxRelay - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. воркер для отправки задач в очередь
	r.worker(r.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
		r.processEventsBatch(batchCtx)
		batchCancel()
	})

	// 2. воркер для пометки failed
	r.worker(r.markFailedInterval, func() {
		err := r.ob.MarkMaxRetriesAsFailed(r.ctx, r.maxRetries)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.ob.MarkMaxRetriesAsFailed")
		}
	})

	// 3. воркер очистки failed/processed из outbox
	r.worker(r.cleanupInterval, func() {
		err := r.ob.CleanupOutbox(r.ctx)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.ob.CleanupOutbox")
		}
	})

	// 4. воркер возврата зависших processing событий и pending записей
	r.worker(r.reclaimInterval, func() {
		err := r.ob.ReclaimStale(r.ctx)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.ob.ReclaimStale")
		}
	})

	return nil
}

func (r *OutboxRelay) processEventsBatch(ctx context.Context) {
	// 1. забираем pending события (retry_count < max) и помечаем processing
	events, err := r.ob.ClaimPendingEvents(ctx, r.maxRetries, r.batchSize)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.ob.ClaimPendingEvents")

		return
	}
	if len(events) == 0 {
		return
	}

	// 2. пробуем их отправить
	err = r.es.SendEvents(ctx, events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.es.SendEvents")
		publishedTotal.WithLabelValues("error").Add(float64(len(events)))

		// 2.1 если не получилось - увеличиваем счетчик ретраев + возвращаем статус в pending
		incErr := r.ob.IncrementRetryCountBatch(context.WithoutCancel(ctx), events)
		if incErr != nil {
			r.logger.Error(incErr, "OutboxRelay - processEventsBatch - r.ob.IncrementRetryCountBatch")
		}
		return
	}

	publishedTotal.WithLabelValues("ok").Add(float64(len(events)))

	// 3. если удалось отправить - помечаем как processed
	err = r.ob.MarkAsProcessedBatch(context.WithoutCancel(ctx), events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.ob.MarkAsProcessedBatch")

		return
	}
}

func (r *OutboxRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *OutboxRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("OutboxRelay - Shutdown: %w", ctx.Err())
	}

	err := r.es.Close()
	if err != nil {
		return fmt.Errorf("OutboxRelay - Shutdown - r.es.Close: %w", err)
	}

	return nil
}
