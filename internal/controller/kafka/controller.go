package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/dto"
	"github.com/andreyxaxa/Image-Captioner/internal/infrastructure"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultMaxAttempts  = 5
	_defaultRetryBackoff = time.Second
	_maxRetryBackoff     = 30 * time.Second
)

// errPoison marks messages that can never succeed and are committed anyway.
var errPoison = errors.New("poison message")

type KafkaController struct {
	enr    usecase.EnrichmentUseCase
	ec     infrastructure.EventsReceiver
	logger logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	readBackoff    time.Duration
	retryBackoff   time.Duration
	maxAttempts    int

	// одинаковый ключ всегда попадает в одну очередь
	balancer kafka.Hash
	queues   []chan kafka.Message

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	enr usecase.EnrichmentUseCase,
	ec infrastructure.EventsReceiver,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
	opts ...Option,
) *KafkaController {
	c := &KafkaController{
		enr:            enr,
		ec:             ec,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		readBackoff:    time.Second,
		retryBackoff:   _defaultRetryBackoff,
		maxAttempts:    _defaultMaxAttempts,
		workers:        max(workers, 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	// по очереди на воркер
	c.queues = make([]chan kafka.Message, c.workers)
	indices := make([]int, c.workers)
	for i := range c.queues {
		c.queues[i] = make(chan kafka.Message, 2)
		indices[i] = i

		c.wg.Add(1)
		go c.worker(c.queues[i])
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			for _, q := range c.queues {
				close(q)
			}
		}()

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				// 1. читаем из кафки
				event, err := c.ec.ReadEvent(c.ctx)
				if err != nil {
					if c.ctx.Err() != nil {
						return
					}
					c.logger.Error(err, "KafkaController - Start - c.ec.ReadEvent")

					select {
					case <-time.After(c.readBackoff):
					case <-c.ctx.Done():
						return
					}
					continue
				}

				// 2. отправляем воркеру, который отвечает за этот ключ
				select {
				case c.queues[c.balancer.Balance(event, indices...)] <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *KafkaController) enrich(ctx context.Context, event kafka.Message) error {
	var payload dto.CaptionRequested
	err := json.Unmarshal(event.Value, &payload)
	if err != nil {
		return fmt.Errorf("KafkaController - enrich - json.Unmarshal: %w: %w", errPoison, err)
	}
	if payload.ImageKey == "" {
		return fmt.Errorf("KafkaController - enrich - empty image_key: %w", errPoison)
	}

	status, err := c.enr.Enrich(ctx, payload.ImageKey)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return fmt.Errorf("KafkaController - enrich - c.enr.Enrich: %w: %w", errPoison, err)
		}

		return fmt.Errorf("KafkaController - enrich - c.enr.Enrich: %w", err)
	}

	c.logger.Debug("enriched key=%s status=%s", payload.ImageKey, status)

	return nil
}

func (c *KafkaController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	// читаем канал, пока не закроется
	for event := range tasks {
		c.handle(event)
	}
}

func (c *KafkaController) handle(event kafka.Message) {
	err := c.process(event)
	if err != nil {
		// остановка: не коммитим, сообщение дочитает следующая сессия
		if c.ctx.Err() != nil {
			return
		}

		// poison и исчерпанные ретраи коммитим, запись остается pending до reclaim
		c.logger.Error(err, "KafkaController - handle - c.process")
	}

	// READY и FAILED коммитим одинаково
	commitCtx, commitCancel := context.WithTimeout(context.WithoutCancel(c.ctx), c.commitTimeout)
	err = c.ec.CommitEvent(commitCtx, event)
	commitCancel()
	if err != nil {
		c.logger.Error(err, "KafkaController - handle - c.ec.CommitEvent")
	}
}

// process retries transient failures with exponential backoff. A later
// offset committed by another worker acknowledges this one too, so the
// broker will not hand the message out again.
func (c *KafkaController) process(event kafka.Message) error {
	backoff := c.retryBackoff

	for attempt := 1; ; attempt++ {
		err := c.attempt(event)
		if err == nil || errors.Is(err, errPoison) {
			return err
		}

		if attempt >= c.maxAttempts {
			return fmt.Errorf("KafkaController - process - gave up after %d attempts: %w", attempt, err)
		}

		c.logger.Warn("enrichment attempt %d for key=%s failed, retrying in %s: %s", attempt, event.Key, backoff, err)

		select {
		case <-time.After(backoff):
		case <-c.ctx.Done():
			return fmt.Errorf("KafkaController - process: %w", c.ctx.Err())
		}

		backoff = min(backoff*2, _maxRetryBackoff)
	}
}

func (c *KafkaController) attempt(event kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("KafkaController - attempt - panic: %v", r)
		}
	}()

	processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
	defer processCancel()

	return c.enrich(processCtx, event)
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}

	err := c.ec.Close()
	if err != nil {
		return fmt.Errorf("KafkaController - Shutdown - c.ec.Close: %w", err)
	}

	return nil
}
