package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// originHeader identifies this service as the producer on every message so
// downstream consumers can filter intake traffic from other listing sources.
const originHeader = "listing-intake-service"

// KafkaPublisher writes intake events to Kafka. The partition key (listing id
// or submitter identifier) keeps per-entity event order stable, and the topic
// map is strict: an event type without a configured topic is a wiring bug, so
// it fails the publish and lands in the outbox dead-letter path.
type KafkaPublisher struct {
	writer       *kafka.Writer
	topicByEvent map[string]string
}

func NewKafkaPublisher(brokers []string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if len(topicByEvent) == 0 {
		return nil, fmt.Errorf("kafka publisher requires a topic map")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 100 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
		},
		topicByEvent: topicByEvent,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	msg, err := p.message(eventType, payload, partitionKey)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) message(eventType string, payload []byte, partitionKey string) (kafka.Message, error) {
	topic, ok := p.topicByEvent[eventType]
	if !ok || topic == "" {
		return kafka.Message{}, fmt.Errorf("no topic mapped for event type %q", eventType)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(partitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "origin", Value: []byte(originHeader)},
		},
	}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
