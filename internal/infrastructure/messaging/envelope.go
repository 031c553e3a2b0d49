// Package messaging publishes user lifecycle events to a broker. Every
// adapter sends the same JSON envelope.
package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopmesh/platform/internal/core/domain"
)

// Envelope is the wire format of an event.
type Envelope struct {
	Topic      domain.Topic    `json:"topic"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Encode wraps ev in an Envelope and marshals it.
func Encode(ev domain.Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", ev.Topic(), err)
	}
	b, err := json.Marshal(Envelope{
		Topic:      ev.Topic(),
		OccurredAt: ev.OccurredAt().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", ev.Topic(), err)
	}
	return b, nil
}
