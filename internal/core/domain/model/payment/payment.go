// Package payment contains the payment record owned by the idempotent
// ledger. A record is created at most once per idempotency key; repeated
// charge attempts with the same key observe the stored record instead of
// producing a second external charge.
package payment

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// ErrPaymentIsNotConstructed is returned when a Payment was not created
// through NewPayment or RestorePayment.
var ErrPaymentIsNotConstructed = errors.New("Payment must be created via NewPayment or RestorePayment")

// Status is the settlement state of a payment record.
type Status string

const (
	// StatusPending marks a record that was inserted before the external
	// charge effect ran. A pending record whose charge never completed is
	// returned as-is on replay: the ledger prefers at-most-once over
	// at-least-once.
	StatusPending Status = "PENDING"

	// StatusCharged marks a successfully settled charge.
	StatusCharged Status = "CHARGED"

	// StatusFailed marks a charge the provider rejected unrecoverably.
	StatusFailed Status = "FAILED"
)

// Validate checks the status is one of the defined settlement states.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusCharged, StatusFailed:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payment status is invalid",
			fmt.Errorf("%q is not a valid payment status", string(s)))
	}
}

// Payment is the ledger's record of one charge attempt, keyed by the
// caller-supplied idempotency key.
type Payment struct {
	idempotencyKey string
	orderID        kernel.UUID
	status         Status
	amount         float64
	createdAt      time.Time
	updatedAt      time.Time

	isConstructed bool
}

// NewPayment creates a pending payment record for an order.
func NewPayment(idempotencyKey string, orderID kernel.UUID, amount float64) (*Payment, error) {
	if idempotencyKey == "" {
		return nil, errs.NewValueIsRequiredError("idempotency_key")
	}
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("amount",
			fmt.Errorf("%v is not greater than 0", amount))
	}

	now := time.Now().UTC()
	return &Payment{
		idempotencyKey: idempotencyKey,
		orderID:        orderID,
		status:         StatusPending,
		amount:         amount,
		createdAt:      now,
		updatedAt:      now,
		isConstructed:  true,
	}, nil
}

// RestorePayment reconstructs a payment record from persistence.
func RestorePayment(
	idempotencyKey string,
	orderID kernel.UUID,
	status Status,
	amount float64,
	createdAt time.Time,
	updatedAt time.Time,
) (*Payment, error) {
	if idempotencyKey == "" {
		return nil, errs.NewValueIsRequiredError("idempotency_key")
	}
	if err := errors.Join(orderID.Validate(), status.Validate()); err != nil {
		return nil, err
	}

	return &Payment{
		idempotencyKey: idempotencyKey,
		orderID:        orderID,
		status:         status,
		amount:         amount,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		isConstructed:  true,
	}, nil
}

// Validate ensures the Payment was created through a constructor.
func (p *Payment) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrPaymentIsNotConstructed
	}
	return nil
}

// IdempotencyKey returns the unique key this record is stored under.
func (p *Payment) IdempotencyKey() string {
	return p.idempotencyKey
}

// OrderID returns the order the charge belongs to.
func (p *Payment) OrderID() kernel.UUID {
	return p.orderID
}

// Status returns the settlement state.
func (p *Payment) Status() Status {
	return p.status
}

// Amount returns the charged amount.
func (p *Payment) Amount() float64 {
	return p.amount
}

// CreatedAt returns the insertion timestamp.
func (p *Payment) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt returns the last settlement-change timestamp.
func (p *Payment) UpdatedAt() time.Time {
	return p.updatedAt
}

// MarkCharged records a successful external charge.
func (p *Payment) MarkCharged() {
	p.status = StatusCharged
	p.updatedAt = time.Now().UTC()
}

// MarkFailed records an unrecoverable provider rejection.
func (p *Payment) MarkFailed() {
	p.status = StatusFailed
	p.updatedAt = time.Now().UTC()
}
