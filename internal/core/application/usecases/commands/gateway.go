package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/process"
	"fulfillment/internal/core/workflow"
)

// ProcessGateway is the single entry point the command handlers route
// through. Commands addressed to the same order are applied one at a time
// in arrival order; different orders proceed independently.
type ProcessGateway interface {
	// Start creates a new order process.
	Start(ctx context.Context, req workflow.StartRequest) error

	// Signal routes one command to a running order process and blocks
	// until it was applied or rejected.
	Signal(ctx context.Context, orderID kernel.UUID, kind process.SignalKind, address order.Address) error
}
