package commands

import (
	"context"
)

// SignalOrderCommandHandler routes operator commands to running order
// processes through the gateway. The call blocks until the process applied
// or rejected the command, so the caller's success means the effect is
// durable.
//
// Example:
//
//	handler := NewSignalOrderCommandHandler(gateway)
//	cmd, _ := NewSignalOrderCommand(orderID, process.SignalCancel, order.Address{})
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    log.Printf("Cancel rejected: %v", err)
//	}
type SignalOrderCommandHandler struct {
	gateway ProcessGateway
}

// NewSignalOrderCommandHandler creates a handler for operator commands.
func NewSignalOrderCommandHandler(gateway ProcessGateway) SignalOrderCommandHandler {
	return SignalOrderCommandHandler{
		gateway: gateway,
	}
}

// Handle routes the command to the order's process. Returns a not-found
// error for unknown orders and an invalid-state-transition error when the
// command is outside its valid window.
func (h *SignalOrderCommandHandler) Handle(ctx context.Context, cmd SignalOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.gateway.Signal(ctx, cmd.OrderID(), cmd.Kind(), cmd.Address())
}
