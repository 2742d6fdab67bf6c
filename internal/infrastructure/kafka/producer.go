package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/internal/infrastructure"
	"github.com/andreyxaxa/Image-Captioner/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

const EventIDHeader = "event_id"

type EventProducer struct {
	*producer.Producer
	topic string
}

var _ infrastructure.EventsSender = (*EventProducer)(nil)

func NewEventProducer(producer *producer.Producer, topic string) *EventProducer {
	return &EventProducer{
		producer,
		topic,
	}
}

func (ep *EventProducer) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	msgsToSend := toMessages(ep.topic, events)
	if len(msgsToSend) == 0 {
		return nil
	}

	err := ep.Writer.WriteMessages(ctx, msgsToSend...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}

// toMessages keys every message by image key so redeliveries for one image
// stay ordered on one partition.
func toMessages(topic string, events []*entity.OutboxEvent) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(events))

	for _, event := range events {
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   []byte(event.AggregateKey),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: EventIDHeader, Value: []byte(event.ID.String())},
			},
		})
	}

	return msgs
}
