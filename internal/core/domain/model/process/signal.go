package process

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

// ErrInvalidStateTransition is returned when a command arrives outside its
// valid window. The instance is left untouched.
var ErrInvalidStateTransition = errors.New("command is not valid in the current state")

// SignalKind enumerates the closed set of operator commands. The set is a
// tagged union, not an open handler registry: each kind's valid-state window
// differs and must be auditable in one place (see allowedStates).
type SignalKind string

const (
	// SignalApprove releases an order waiting at the approval suspend point.
	SignalApprove SignalKind = "approve"

	// SignalCancel aborts the process; accepted only strictly before the
	// payment charge commits.
	SignalCancel SignalKind = "cancel"

	// SignalUpdateAddress merges a new shipping address into the order;
	// accepted only strictly before payment charging begins.
	SignalUpdateAddress SignalKind = "update-address"
)

// allowedStates is the single per-state validity table for all command
// kinds. Cancel includes ChargingPayment because the runner evaluates queued
// commands one last time before invoking the charge; once the charge commits
// the order is in Shipping and cancel no longer matches.
func allowedStates() map[SignalKind][]order.Status {
	return map[SignalKind][]order.Status{
		SignalApprove:       {order.AwaitingApproval},
		SignalCancel:        {order.Receiving, order.Validating, order.AwaitingApproval, order.ChargingPayment},
		SignalUpdateAddress: {order.Receiving, order.Validating, order.AwaitingApproval},
	}
}

// Validate checks the kind is a member of the closed command set.
func (k SignalKind) Validate() error {
	switch k {
	case SignalApprove, SignalCancel, SignalUpdateAddress:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("signal kind is invalid",
			fmt.Errorf("%q is not a valid signal kind", string(k)))
	}
}

// AllowedIn reports whether the kind may be applied while the order is in
// the given status.
func (k SignalKind) AllowedIn(status order.Status) bool {
	for _, s := range allowedStates()[k] {
		if s == status {
			return true
		}
	}
	return false
}

// Signal is one operator command directed at a specific order. The address
// payload is meaningful only for SignalUpdateAddress.
type Signal struct {
	Kind       SignalKind    `json:"kind"`
	Address    order.Address `json:"address,omitzero"`
	ReceivedAt time.Time     `json:"received_at"`
}

// NewSignal creates a validated Signal stamped with the receipt time.
func NewSignal(kind SignalKind, address order.Address) (Signal, error) {
	if err := kind.Validate(); err != nil {
		return Signal{}, err
	}
	if kind == SignalUpdateAddress && address.IsZero() {
		return Signal{}, errs.NewValueIsRequiredError("address")
	}
	return Signal{
		Kind:       kind,
		Address:    address,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// ValidateFor returns ErrInvalidStateTransition (wrapped with detail) when
// the signal may not be applied in the given status.
func (s Signal) ValidateFor(status order.Status) error {
	if !s.Kind.AllowedIn(status) {
		return fmt.Errorf("%w: %s while %s", ErrInvalidStateTransition, s.Kind, status)
	}
	return nil
}
