package ports

import (
	"context"

	"github.com/shopmesh/platform/internal/core/domain"
)

// EventPublisher sends user lifecycle events to the broker. Delivery is
// best-effort: callers log a returned error and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
