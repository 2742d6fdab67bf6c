package kafka

import (
	"context"
	"fmt"
	"strconv"

	"github.com/andreyxaxa/Image-Captioner/internal/infrastructure"
	"github.com/andreyxaxa/Image-Captioner/pkg/kafka/consumer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var consumerLag = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "captioner_kafka_consumer_lag",
		Help: "Messages behind the partition high water mark at the last fetch.",
	},
	[]string{"partition"},
)

type EventConsumer struct {
	*consumer.Consumer
}

var _ infrastructure.EventsReceiver = (*EventConsumer)(nil)

func NewEventConsumer(consumer *consumer.Consumer) *EventConsumer {
	return &EventConsumer{consumer}
}

func (ec *EventConsumer) ReadEvent(ctx context.Context) (kafka.Message, error) {
	msg, err := ec.Reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("EventConsumer - ReadEvent - ec.Reader.FetchMessage: %w", err)
	}

	consumerLag.WithLabelValues(strconv.Itoa(msg.Partition)).Set(float64(lag(msg)))

	return msg, nil
}

func (ec *EventConsumer) CommitEvent(ctx context.Context, event kafka.Message) error {
	err := ec.Reader.CommitMessages(ctx, event)
	if err != nil {
		return fmt.Errorf("EventConsumer - CommitEvent - ec.Reader.CommitMessages: %w", err)
	}

	return nil
}

// lag counts the messages after msg that are already in the partition.
func lag(msg kafka.Message) int64 {
	return max(msg.HighWaterMark-msg.Offset-1, 0)
}

func (ec *EventConsumer) Close() error {
	err := ec.Consumer.Close()
	if err != nil {
		return fmt.Errorf("EventConsumer - Close: %w", err)
	}

	return nil
}
