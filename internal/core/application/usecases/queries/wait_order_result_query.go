package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrWaitOrderResultQueryIsNotConstructed = errors.New(
		"WaitOrderResultQuery must be created via NewWaitOrderResultQuery constructor",
	)
)

// WaitOrderResultQuery blocks until one order's process reaches a terminal
// state and reports it. Callers bound the wait through the context.
type WaitOrderResultQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewWaitOrderResultQuery creates a query waiting for one order's terminal
// state.
func NewWaitOrderResultQuery(orderID kernel.UUID) (WaitOrderResultQuery, error) {
	if err := orderID.Validate(); err != nil {
		return WaitOrderResultQuery{}, err
	}

	return WaitOrderResultQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q WaitOrderResultQuery) Validate() error {
	return q.guard.Validate(ErrWaitOrderResultQueryIsNotConstructed)
}

// OrderID returns the identifier of the awaited order.
func (q WaitOrderResultQuery) OrderID() kernel.UUID {
	return q.orderID
}

// WaitOrderResultQueryResponse is the terminal outcome of one order.
type WaitOrderResultQueryResponse struct {
	ID    kernel.UUID
	State string
}
