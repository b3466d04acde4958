package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/process"
)

// InstanceRepository defines the persistence contract for process-instance
// bookkeeping rows. Rows are never deleted: terminal instances stay for
// audit alongside their event history.
type InstanceRepository interface {
	// Add persists a freshly created instance. Fails if an instance for the
	// same order id already exists.
	Add(ctx context.Context, aggregate *process.Instance) error

	// Update persists step, attempt counter, deadline, and pending-signal
	// changes of an existing instance.
	Update(ctx context.Context, aggregate *process.Instance) error

	// Get retrieves the instance of one order.
	Get(ctx context.Context, orderID kernel.UUID) (*process.Instance, error)

	// GetAllActive returns every instance whose step is not terminal.
	// Used by restart recovery to resume interrupted processes.
	GetAllActive(ctx context.Context) ([]*process.Instance, error)
}
