package commands

import (
	"context"

	"fulfillment/internal/core/workflow"
)

// StartOrderCommandHandler starts new order fulfillment processes through
// the gateway.
//
// Example:
//
//	handler := NewStartOrderCommandHandler(gateway)
//	cmd, _ := NewStartOrderCommand(kernel.NewUUID(), "customer-42", 99.95, "", "")
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    log.Printf("Failed to start order: %v", err)
//	}
type StartOrderCommandHandler struct {
	gateway ProcessGateway
}

// NewStartOrderCommandHandler creates a handler for starting order
// processes.
func NewStartOrderCommandHandler(gateway ProcessGateway) StartOrderCommandHandler {
	return StartOrderCommandHandler{
		gateway: gateway,
	}
}

// Handle starts the order process. Returns an already-exists error when a
// process for the order id was started before, and a validation error when
// the order details failed the process's validating step.
func (h *StartOrderCommandHandler) Handle(ctx context.Context, cmd StartOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.gateway.Start(ctx, workflow.StartRequest{
		OrderID:        cmd.OrderID(),
		CustomerRef:    cmd.CustomerRef(),
		Total:          cmd.Total(),
		Priority:       cmd.Priority(),
		IdempotencyKey: cmd.PaymentID(),
	})
}
