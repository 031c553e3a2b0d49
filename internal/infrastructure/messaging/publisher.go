package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/core/ports"
)

const (
	DriverLog      = "log"
	DriverRabbitMQ = "rabbitmq"
	DriverKafka    = "kafka"
	DriverRedis    = "redis"
)

// Publisher is a broker adapter with a lifecycle.
type Publisher interface {
	ports.EventPublisher
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures the broker adapter.
type Config struct {
	Driver             string
	RabbitURL          string
	RabbitExchange     string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	RedisChannelPrefix string
}

// New builds the adapter named by cfg.Driver. rdb is only used by the redis
// driver and may be nil otherwise.
func New(cfg Config, rdb *redis.Client, log zerolog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case DriverLog, "":
		return NewLogPublisher(log), nil
	case DriverRabbitMQ:
		p, err := NewRabbitMQPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("kafka: no brokers configured")
		}
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix), nil
	case DriverRedis:
		if rdb == nil {
			return nil, errors.New("redis publisher: redis client not configured")
		}
		return NewRedisPublisher(rdb, cfg.RedisChannelPrefix), nil
	default:
		return nil, fmt.Errorf("unknown broker driver %q", cfg.Driver)
	}
}
