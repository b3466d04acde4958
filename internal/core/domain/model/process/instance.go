package process

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

// ErrInstanceIsNotConstructed is returned when an Instance was not created
// through NewInstance or RestoreInstance.
var ErrInstanceIsNotConstructed = errors.New("Instance must be created via NewInstance or RestoreInstance")

// Instance is the durable bookkeeping record of one order process: the
// current step, the persisted FIFO of not-yet-applied commands, the shipping
// attempt counter, and the suspend deadline. The instance id equals the
// order id. The row survives terminal states for audit; only its runner goes
// away.
type Instance struct {
	orderID         kernel.UUID
	step            order.Status
	attempt         int
	suspendDeadline *time.Time
	idempotencyKey  string
	pending         []Signal
	createdAt       time.Time
	updatedAt       time.Time

	isConstructed bool
}

// NewInstance creates the bookkeeping record for a freshly started order.
// The idempotency key is fixed here, before any charge attempt, so every
// replay reuses it.
func NewInstance(orderID kernel.UUID, idempotencyKey string) (*Instance, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if idempotencyKey == "" {
		return nil, errs.NewValueIsRequiredError("idempotency_key")
	}

	now := time.Now().UTC()
	return &Instance{
		orderID:        orderID,
		step:           order.Receiving,
		idempotencyKey: idempotencyKey,
		createdAt:      now,
		updatedAt:      now,
		isConstructed:  true,
	}, nil
}

// RestoreInstance reconstructs an instance from persistence.
func RestoreInstance(
	orderID kernel.UUID,
	step order.Status,
	attempt int,
	suspendDeadline *time.Time,
	idempotencyKey string,
	pending []Signal,
	createdAt time.Time,
	updatedAt time.Time,
) (*Instance, error) {
	if err := errors.Join(orderID.Validate(), step.Validate()); err != nil {
		return nil, err
	}
	if idempotencyKey == "" {
		return nil, errs.NewValueIsRequiredError("idempotency_key")
	}
	if attempt < 0 {
		return nil, errs.NewValueIsInvalidError("attempt")
	}

	return &Instance{
		orderID:         orderID,
		step:            step,
		attempt:         attempt,
		suspendDeadline: suspendDeadline,
		idempotencyKey:  idempotencyKey,
		pending:         pending,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		isConstructed:   true,
	}, nil
}

// Validate ensures the Instance was created through a constructor.
func (i *Instance) Validate() error {
	if i == nil || !i.isConstructed {
		return ErrInstanceIsNotConstructed
	}
	return nil
}

// OrderID returns the instance identifier (equal to the order id).
func (i *Instance) OrderID() kernel.UUID {
	return i.orderID
}

// Step returns the step the process was last persisted in.
func (i *Instance) Step() order.Status {
	return i.step
}

// Attempt returns the persisted shipping attempt counter. Zero means no
// attempt has started yet.
func (i *Instance) Attempt() int {
	return i.attempt
}

// SuspendDeadline returns the wall-clock deadline of the current suspend
// point, or nil when the process is not suspended.
func (i *Instance) SuspendDeadline() *time.Time {
	return i.suspendDeadline
}

// IdempotencyKey returns the charge idempotency key fixed at start.
func (i *Instance) IdempotencyKey() string {
	return i.idempotencyKey
}

// PendingSignals returns the persisted FIFO of received-but-unapplied
// commands, oldest first.
func (i *Instance) PendingSignals() []Signal {
	out := make([]Signal, len(i.pending))
	copy(out, i.pending)
	return out
}

// CreatedAt returns the creation timestamp.
func (i *Instance) CreatedAt() time.Time {
	return i.createdAt
}

// UpdatedAt returns the last mutation timestamp.
func (i *Instance) UpdatedAt() time.Time {
	return i.updatedAt
}

// SetStep records the step the process is entering.
func (i *Instance) SetStep(step order.Status) error {
	if err := step.Validate(); err != nil {
		return err
	}
	i.step = step
	i.touch()
	return nil
}

// BeginAttempt increments and returns the shipping attempt counter. It is
// persisted before the subprocess runs so a crash mid-attempt resumes at the
// correct number instead of restarting the count.
func (i *Instance) BeginAttempt() int {
	i.attempt++
	i.touch()
	return i.attempt
}

// Suspend records the wall-clock deadline of a suspend point. On resume the
// remaining wait is recomputed from this value, never from an in-process
// elapsed timer.
func (i *Instance) Suspend(deadline time.Time) {
	d := deadline.UTC()
	i.suspendDeadline = &d
	i.touch()
}

// ClearSuspend removes the suspend deadline once the wait is over.
func (i *Instance) ClearSuspend() {
	i.suspendDeadline = nil
	i.touch()
}

// EnqueueSignal appends a received command to the persisted FIFO.
func (i *Instance) EnqueueSignal(sig Signal) {
	i.pending = append(i.pending, sig)
	i.touch()
}

// RemoveSignal deletes the first pending command equal to sig. Commands are
// normally consumed head-first, but the cancel-over-approve tie-break may
// consume a cancel queued behind other commands.
func (i *Instance) RemoveSignal(sig Signal) {
	for idx, pending := range i.pending {
		if pending == sig {
			i.pending = append(i.pending[:idx], i.pending[idx+1:]...)
			i.touch()
			return
		}
	}
}

// DropLastSignal removes the newest pending command. Used to undo an
// enqueue whose persistence failed.
func (i *Instance) DropLastSignal() {
	if len(i.pending) == 0 {
		return
	}
	i.pending = i.pending[:len(i.pending)-1]
	i.touch()
}

func (i *Instance) touch() {
	i.updatedAt = time.Now().UTC()
}
