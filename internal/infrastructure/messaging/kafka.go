package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/shopmesh/platform/internal/core/domain"
)

// Writer defines the subset of kafka.Writer we need. This makes the publisher testable.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each event to the topic prefix+event topic, keyed by
// the event key so one user's events land on one partition.
type KafkaPublisher struct {
	writer  Writer
	prefix  string
	brokers []string
}

// NewKafkaPublisher creates a publisher backed by a real kafka.Writer.
func NewKafkaPublisher(brokers []string, topicPrefix string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, prefix: topicPrefix, brokers: brokers}
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer, topicPrefix string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, prefix: topicPrefix}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev domain.Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.prefix + string(ev.Topic()),
		Key:   []byte(ev.Key()),
		Value: body,
		Time:  ev.OccurredAt(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", msg.Topic, err)
	}
	return nil
}

// Ping dials the first reachable broker.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return nil
	}
	var errs []error
	for _, b := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err == nil {
			return conn.Close()
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("kafka: no broker reachable: %w", errors.Join(errs...))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
