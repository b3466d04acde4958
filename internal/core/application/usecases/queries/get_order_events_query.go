package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetOrderEventsQueryIsNotConstructed = errors.New(
		"GetOrderEventsQuery must be created via NewGetOrderEventsQuery constructor",
	)
)

// GetOrderEventsQuery retrieves the audit event history of one order,
// oldest first.
type GetOrderEventsQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderEventsQuery creates a query for one order's event history.
func NewGetOrderEventsQuery(orderID kernel.UUID) (GetOrderEventsQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderEventsQuery{}, err
	}

	return GetOrderEventsQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderEventsQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderEventsQueryIsNotConstructed)
}

// OrderID returns the identifier of the queried order.
func (q GetOrderEventsQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetOrderEventsQueryResponse is one audit log entry.
type GetOrderEventsQueryResponse struct {
	EventType  string
	Payload    map[string]any
	OccurredAt time.Time
}
