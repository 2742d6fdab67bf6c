package producer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/andreyxaxa/Image-Captioner/pkg/kafka/broker"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultBatchTimeout = 10 * time.Millisecond
	_defaultWriteTimeout = 10 * time.Second
	// relay retries failed batches itself
	_defaultMaxAttempts = 3
)

type Producer struct {
	connAttempts int
	connTimeout  time.Duration
	batchTimeout time.Duration
	writeTimeout time.Duration
	maxAttempts  int
	autoCreate   bool

	brokers []string
	Writer  *kafka.Writer
}

func New(ctx context.Context, brokers []string, opts ...Option) (*Producer, error) {
	p := &Producer{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		batchTimeout: _defaultBatchTimeout,
		writeTimeout: _defaultWriteTimeout,
		maxAttempts:  _defaultMaxAttempts,
		brokers:      brokers,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.Writer = &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Balancer:     &kafka.Hash{}, // same key, same partition
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: p.batchTimeout,
		WriteTimeout: p.writeTimeout,
		MaxAttempts:  p.maxAttempts,

		AllowAutoTopicCreation: p.autoCreate,
	}

	err := broker.WaitReady(ctx, p.brokers, p.connAttempts, p.connTimeout, func(left int, err error) {
		log.Printf("Kafka producer is trying to connect, attempts left: %d: %s", left, err)
	})
	if err != nil {
		return nil, fmt.Errorf("Kafka Producer - New - broker.WaitReady: %w", err)
	}

	return p, nil
}

func (p *Producer) Close() error {
	if p.Writer != nil {
		return p.Writer.Close()
	}

	return nil
}
