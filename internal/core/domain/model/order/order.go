package order

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")

	// ErrApprovalRequired is returned when charging is attempted on an order
	// that has not been approved.
	ErrApprovalRequired = errors.New("order must be approved before payment charging begins")
)

// Order is the aggregate root of the fulfillment process. It is owned
// exclusively by its process instance: callers never mutate it directly, they
// send commands that the instance applies between steps.
//
// Invariants:
//   - Must have a valid unique identifier.
//   - Status transitions only along the graph defined on Status.
//   - Approval is recorded exactly once, before charging.
//   - Cancellation is possible only strictly before the charge commits.
//   - Can only be created through NewOrder or RestoreOrder.
type Order struct {
	id          kernel.UUID
	customerRef string
	total       float64
	priority    Priority
	address     *Address
	status      Status
	approved    bool
	cancelled   bool
	lastError   *string
	createdAt   time.Time
	updatedAt   time.Time

	isConstructed bool
}

// NewOrder creates a new Order in Receiving status. The identifier and
// priority must be valid; customer reference and total are checked later by
// ValidateDetails so that an order with bad details still enters the system
// and fails visibly during its validating step.
func NewOrder(id kernel.UUID, customerRef string, total float64, priority Priority) (*Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := priority.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Order{
		id:            id,
		customerRef:   customerRef,
		total:         total,
		priority:      priority,
		status:        Receiving,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}, nil
}

// RestoreOrder reconstructs an Order from persistence without re-running the
// lifecycle. The stored status must be valid.
func RestoreOrder(
	id kernel.UUID,
	customerRef string,
	total float64,
	priority Priority,
	address *Address,
	status Status,
	approved bool,
	cancelled bool,
	lastError *string,
	createdAt time.Time,
	updatedAt time.Time,
) (*Order, error) {
	if err := errors.Join(id.Validate(), priority.Validate(), status.Validate()); err != nil {
		return nil, err
	}

	return &Order{
		id:            id,
		customerRef:   customerRef,
		total:         total,
		priority:      priority,
		address:       address,
		status:        status,
		approved:      approved,
		cancelled:     cancelled,
		lastError:     lastError,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		isConstructed: true,
	}, nil
}

// Validate ensures the Order was created through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerRef returns the reference to the ordering customer.
func (o *Order) CustomerRef() string {
	return o.customerRef
}

// Total returns the monetary total of the order.
func (o *Order) Total() float64 {
	return o.total
}

// Priority returns the order's priority tag.
func (o *Order) Priority() Priority {
	return o.priority
}

// Address returns the shipping address, or nil if none has been supplied.
func (o *Order) Address() *Address {
	return o.address
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// Approved reports whether the approve command has been applied.
func (o *Order) Approved() bool {
	return o.approved
}

// Cancelled reports whether the order reached Cancelled.
func (o *Order) Cancelled() bool {
	return o.cancelled
}

// LastError returns the most recent terminal-causing error, or nil.
func (o *Order) LastError() *string {
	return o.lastError
}

// CreatedAt returns the creation timestamp.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns the last mutation timestamp.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// ValidateDetails checks the business validity of the order's details during
// the Validating step: the customer reference must be present and the total
// must be positive.
func (o *Order) ValidateDetails() error {
	if o.customerRef == "" {
		return errs.NewValueIsRequiredError("customer_ref")
	}
	if o.total <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("total",
			fmt.Errorf("%v is not greater than 0", o.total))
	}
	return nil
}

// BeginValidation moves the order into Validating.
func (o *Order) BeginValidation() error {
	return o.transition(Status.BeginValidation)
}

// AwaitApproval moves the order into AwaitingApproval.
func (o *Order) AwaitApproval() error {
	return o.transition(Status.AwaitApproval)
}

// Approve records the operator's approval. Valid only while awaiting
// approval, and only once.
func (o *Order) Approve() error {
	if o.status != AwaitingApproval {
		return o.status.transitionError(ChargingPayment)
	}
	o.approved = true
	o.touch()
	return nil
}

// BeginCharging moves the approved order into ChargingPayment.
func (o *Order) BeginCharging() error {
	if !o.approved {
		return ErrApprovalRequired
	}
	return o.transition(Status.BeginCharging)
}

// BeginShipping moves the order into Shipping after the charge committed.
func (o *Order) BeginShipping() error {
	return o.transition(Status.BeginShipping)
}

// MarkShipped moves the order into MarkingShipped.
func (o *Order) MarkShipped() error {
	return o.transition(Status.MarkShipped)
}

// Complete finalizes the order. No further mutation is possible afterwards.
func (o *Order) Complete() error {
	return o.transition(Status.Complete)
}

// Cancel moves the order to Cancelled. The Status graph restricts this to
// the window strictly before the payment charge commits.
func (o *Order) Cancel() error {
	if err := o.transition(Status.Cancel); err != nil {
		return err
	}
	o.cancelled = true
	return nil
}

// Fail moves the order to Failed and records reason as the last error.
func (o *Order) Fail(reason string) error {
	if err := o.transition(Status.Fail); err != nil {
		return err
	}
	o.lastError = &reason
	return nil
}

// UpdateAddress merges addr into the stored address, last write wins per
// field. The command-validity window (strictly before charging) is enforced
// by the process signal table, not here.
func (o *Order) UpdateAddress(addr Address) {
	if o.address == nil {
		merged := Address{}.Merge(addr)
		o.address = &merged
	} else {
		merged := o.address.Merge(addr)
		o.address = &merged
	}
	o.touch()
}

func (o *Order) transition(step func(Status) (Status, error)) error {
	newStatus, err := step(o.status)
	if err != nil {
		return err
	}
	o.status = newStatus
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.updatedAt = time.Now().UTC()
}
