package messaging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/core/domain"
)

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, ev domain.Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	p.log.Info().
		Str("topic", string(ev.Topic())).
		Str("key", ev.Key()).
		RawJSON("event", body).
		Msg("event published")
	return nil
}

func (p *LogPublisher) Ping(context.Context) error { return nil }

func (p *LogPublisher) Close() error { return nil }
