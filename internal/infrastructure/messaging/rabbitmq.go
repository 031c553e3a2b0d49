package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shopmesh/platform/internal/core/domain"
)

// amqpChannel is the subset of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher sends events to a durable topic exchange, routed by topic.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	exchange string

	// an amqp channel must not be used by two goroutines at once
	mu sync.Mutex
	ch amqpChannel
}

// NewRabbitMQPublisher dials url and declares the exchange.
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq declare exchange %s: %w", exchange, err)
	}

	return &RabbitMQPublisher{conn: conn, exchange: exchange, ch: ch}, nil
}

func newRabbitMQPublisherWithChannel(ch amqpChannel, exchange string) *RabbitMQPublisher {
	return &RabbitMQPublisher{exchange: exchange, ch: ch}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, ev domain.Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		string(ev.Topic()), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.OccurredAt(),
			Type:         string(ev.Topic()),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", ev.Topic(), err)
	}
	return nil
}

func (p *RabbitMQPublisher) Ping(context.Context) error {
	if p.conn != nil && p.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if err := p.ch.Close(); err != nil {
		errs = append(errs, err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
