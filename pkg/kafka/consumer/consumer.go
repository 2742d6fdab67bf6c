package consumer

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
	_defaultMaxWait      = time.Second

	_defaultSessionTimeout = 30 * time.Second
)

type Consumer struct {
	connAttempts   int
	connTimeout    time.Duration
	maxWait        time.Duration
	startOffset    int64
	sessionTimeout time.Duration

	brokers []string
	groupID string
	topic   string

	Reader *kafka.Reader
}

func New(ctx context.Context, brokers []string, groupID, topic string, opts ...Option) (*Consumer, error) {
	c := &Consumer{
		connAttempts:   _defaultConnAttempts,
		connTimeout:    _defaultConnTimeout,
		maxWait:        _defaultMaxWait,
		startOffset:    kafka.FirstOffset,
		sessionTimeout: _defaultSessionTimeout,
		brokers:        brokers,
		groupID:        groupID,
		topic:          topic,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.brokers,
		GroupID:  c.groupID,
		Topic:    c.topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  c.maxWait,

		CommitInterval: 0, // CommitMessages returns once the offset is written
		StartOffset:    c.startOffset,
		SessionTimeout: c.sessionTimeout,
	})

	err := broker.WaitReady(ctx, c.brokers, c.connAttempts, c.connTimeout, func(left int, err error) {
		log.Printf("Kafka consumer is trying to connect, attempts left: %d: %s", left, err)
	})
	if err != nil {
		c.Reader.Close()

		return nil, fmt.Errorf("Kafka Consumer - New - broker.WaitReady: %w", err)
	}

	return c, nil
}

func (c *Consumer) Close() error {
	if c.Reader != nil {
		return c.Reader.Close()
	}
	return nil
}
