package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/process"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrSignalOrderCommandIsNotConstructed = errors.New(
		"SignalOrderCommand must be created via NewSignalOrderCommand constructor",
	)
)

// SignalOrderCommand represents one operator command (approve, cancel, or
// update-address) directed at a running order process.
//
// Example:
//
//	cmd, err := NewSignalOrderCommand(orderID, process.SignalApprove, order.Address{})
//	if err != nil {
//	    return fmt.Errorf("invalid command: %w", err)
//	}
//
//	handler := NewSignalOrderCommandHandler(gateway)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("command rejected: %w", err)
//	}
type SignalOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	kind    process.SignalKind
	address order.Address

	guard guard.ConstructorGuard
}

// NewSignalOrderCommand creates a new operator command. The address is
// required for update-address and ignored for the other kinds.
func NewSignalOrderCommand(
	orderID kernel.UUID,
	kind process.SignalKind,
	address order.Address,
) (SignalOrderCommand, error) {
	command := SignalOrderCommand{
		guard:   guard.NewConstructorGuard(),
		address: address,
	}

	if err := errors.Join(
		command.setOrderID(orderID),
		command.setKind(kind, address),
	); err != nil {
		return SignalOrderCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c SignalOrderCommand) Validate() error {
	return c.guard.Validate(ErrSignalOrderCommandIsNotConstructed)
}

// OrderID returns the identifier of the addressed order.
func (c SignalOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Kind returns the command kind.
func (c SignalOrderCommand) Kind() process.SignalKind {
	return c.kind
}

// Address returns the new shipping address for update-address commands.
func (c SignalOrderCommand) Address() order.Address {
	return c.address
}

func (c *SignalOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *SignalOrderCommand) setKind(kind process.SignalKind, address order.Address) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if _, err := process.NewSignal(kind, address); err != nil {
		return err
	}

	c.kind = kind
	return nil
}
