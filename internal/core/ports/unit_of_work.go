package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances, one per business
// transaction, ensuring isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary across the
// fulfillment aggregates. Every state-machine transition is persisted within
// one unit of work: the order update, the instance update, and the audit
// event commit or roll back together.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction. Safe to defer after a
	// commit: rolling back a finished transaction is a no-op error.
	Rollback(ctx context.Context) error

	// OrderRepository returns an OrderRepository bound to the current transaction.
	OrderRepository() OrderRepository

	// PaymentRepository returns a PaymentRepository bound to the current transaction.
	PaymentRepository() PaymentRepository

	// EventRepository returns an EventRepository bound to the current transaction.
	EventRepository() EventRepository

	// InstanceRepository returns an InstanceRepository bound to the current transaction.
	InstanceRepository() InstanceRepository
}
