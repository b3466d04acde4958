package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// ResultWaiter blocks until an order's process reaches a terminal state.
// Implemented by the process engine.
type ResultWaiter interface {
	Result(ctx context.Context, orderID kernel.UUID) (order.Status, error)
}

// WaitOrderResultQueryHandler waits for terminal order outcomes through the
// process engine. Unlike the other queries this one cannot read the
// database directly: it must observe the live process to unblock the
// moment the terminal transition commits.
type WaitOrderResultQueryHandler struct {
	waiter ResultWaiter
}

// NewWaitOrderResultQueryHandler creates a handler for result waits.
func NewWaitOrderResultQueryHandler(waiter ResultWaiter) WaitOrderResultQueryHandler {
	return WaitOrderResultQueryHandler{waiter: waiter}
}

// Handle blocks until the order's process finishes and returns its terminal
// state. Returns immediately for orders already terminal, a not-found error
// for unknown orders, and the context's error when the caller's deadline
// expires first.
func (h WaitOrderResultQueryHandler) Handle(
	ctx context.Context,
	query WaitOrderResultQuery,
) (WaitOrderResultQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return WaitOrderResultQueryResponse{}, err
	}

	status, err := h.waiter.Result(ctx, query.OrderID())
	if err != nil {
		return WaitOrderResultQueryResponse{}, err
	}

	return WaitOrderResultQueryResponse{
		ID:    query.OrderID(),
		State: status.String(),
	}, nil
}
