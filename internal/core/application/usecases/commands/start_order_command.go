package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrStartOrderCommandIsNotConstructed = errors.New(
		"StartOrderCommand must be created via NewStartOrderCommand constructor",
	)
)

// StartOrderCommand represents a request to start a new order fulfillment
// process. The customer reference and total are carried through even when
// invalid: the process itself rejects them during its validating step, so
// bad orders fail visibly rather than silently.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	cmd, err := NewStartOrderCommand(orderID, "customer-42", 99.95, "HIGH", "")
//	if err != nil {
//	    return fmt.Errorf("invalid command: %w", err)
//	}
//
//	handler := NewStartOrderCommandHandler(gateway)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to start order: %w", err)
//	}
type StartOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	customerRef string
	total       float64
	priority    order.Priority
	paymentID   string

	guard guard.ConstructorGuard
}

// NewStartOrderCommand creates a new command to start an order process.
// Validates the order id and the priority; an empty priority defaults to
// NORMAL. paymentID optionally fixes the charge idempotency key; empty
// means the key is derived from the order id.
func NewStartOrderCommand(
	orderID kernel.UUID,
	customerRef string,
	total float64,
	priority string,
	paymentID string,
) (StartOrderCommand, error) {
	command := StartOrderCommand{
		guard:       guard.NewConstructorGuard(),
		customerRef: customerRef,
		total:       total,
		paymentID:   paymentID,
	}

	if err := errors.Join(
		command.setOrderID(orderID),
		command.setPriority(priority),
	); err != nil {
		return StartOrderCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c StartOrderCommand) Validate() error {
	return c.guard.Validate(ErrStartOrderCommandIsNotConstructed)
}

// OrderID returns the identifier of the order to start.
func (c StartOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CustomerRef returns the customer reference of the order.
func (c StartOrderCommand) CustomerRef() string {
	return c.customerRef
}

// Total returns the order total.
func (c StartOrderCommand) Total() float64 {
	return c.total
}

// Priority returns the order priority.
func (c StartOrderCommand) Priority() order.Priority {
	return c.priority
}

// PaymentID returns the caller-supplied charge idempotency key, or an empty
// string when the default key applies.
func (c StartOrderCommand) PaymentID() string {
	return c.paymentID
}

func (c *StartOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *StartOrderCommand) setPriority(priority string) error {
	p, err := order.NewPriority(priority)
	if err != nil {
		return err
	}

	c.priority = p
	return nil
}
