package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/process"
)

// EventRepository defines the append-only audit log contract. Events are
// never updated or deleted.
type EventRepository interface {
	// Append writes one event to the log.
	Append(ctx context.Context, event process.Event) error

	// ListByOrder returns all events of one order, oldest first.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]process.Event, error)
}
