package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status represents the lifecycle state of an order. It implements a state
// machine with defined transitions so orders always move along the
// fulfillment workflow:
//
//	RECEIVING → VALIDATING → AWAITING_APPROVAL → CHARGING_PAYMENT →
//	SHIPPING → MARKING_SHIPPED → COMPLETED
//
// with the alternate terminals CANCELLED and FAILED. Cancellation is allowed
// from any state up to and including CHARGING_PAYMENT (strictly before the
// charge commits); failure is allowed from any non-terminal state.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Receiving is the initial status assigned when an order enters the system.
	Receiving

	// Validating indicates the order details are being checked.
	Validating

	// AwaitingApproval indicates the order is suspended waiting for an
	// operator approve or cancel command, bounded by a deadline.
	AwaitingApproval

	// ChargingPayment indicates the payment charge is in progress.
	ChargingPayment

	// Shipping indicates the shipping subprocess is running.
	Shipping

	// MarkingShipped indicates the shipped fact is being recorded.
	MarkingShipped

	// Completed is the successful terminal status.
	Completed

	// Cancelled is the terminal status reached by an operator cancel
	// command before the payment charge committed.
	Cancelled

	// Failed is the terminal status reached on validation failure,
	// approval timeout, or exhausted shipping retries.
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:          "UNKNOWN",
		Receiving:        "RECEIVING",
		Validating:       "VALIDATING",
		AwaitingApproval: "AWAITING_APPROVAL",
		ChargingPayment:  "CHARGING_PAYMENT",
		Shipping:         "SHIPPING",
		MarkingShipped:   "MARKING_SHIPPED",
		Completed:        "COMPLETED",
		Cancelled:        "CANCELLED",
		Failed:           "FAILED",
	}
}

// Validate checks that the Status holds one of the defined lifecycle values.
// Unknown (0) and out-of-range values are invalid. Used when reconstructing
// orders from persistence.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%d is not a valid status", s))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the uppercase wire name of the status, or "UNKNOWN" for
// invalid values. Implements fmt.Stringer.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

func (s Status) transitionError(target Status) error {
	return errs.NewValueIsInvalidErrorWithCause(
		"status is invalid",
		fmt.Errorf("%s is not a valid status to enter %s", s, target),
	)
}

// BeginValidation transitions Receiving -> Validating.
func (s Status) BeginValidation() (Status, error) {
	if s != Receiving {
		return 0, s.transitionError(Validating)
	}
	return Validating, nil
}

// AwaitApproval transitions Validating -> AwaitingApproval.
func (s Status) AwaitApproval() (Status, error) {
	if s != Validating {
		return 0, s.transitionError(AwaitingApproval)
	}
	return AwaitingApproval, nil
}

// BeginCharging transitions AwaitingApproval -> ChargingPayment.
// Approval must have been granted before charging begins; the aggregate
// enforces that rule in Order.BeginCharging.
func (s Status) BeginCharging() (Status, error) {
	if s != AwaitingApproval {
		return 0, s.transitionError(ChargingPayment)
	}
	return ChargingPayment, nil
}

// BeginShipping transitions ChargingPayment -> Shipping.
func (s Status) BeginShipping() (Status, error) {
	if s != ChargingPayment {
		return 0, s.transitionError(Shipping)
	}
	return Shipping, nil
}

// MarkShipped transitions Shipping -> MarkingShipped.
func (s Status) MarkShipped() (Status, error) {
	if s != Shipping {
		return 0, s.transitionError(MarkingShipped)
	}
	return MarkingShipped, nil
}

// Complete transitions MarkingShipped -> Completed, the successful terminal.
func (s Status) Complete() (Status, error) {
	if s != MarkingShipped {
		return 0, s.transitionError(Completed)
	}
	return Completed, nil
}

// Cancel transitions to Cancelled. Valid from Receiving, Validating,
// AwaitingApproval, and ChargingPayment: the window strictly before the
// payment charge commits. After commit the order has already moved to
// Shipping and cancellation is no longer possible.
func (s Status) Cancel() (Status, error) {
	switch s {
	case Receiving, Validating, AwaitingApproval, ChargingPayment:
		return Cancelled, nil
	default:
		return 0, s.transitionError(Cancelled)
	}
}

// Fail transitions any non-terminal status to Failed.
func (s Status) Fail() (Status, error) {
	if s == Unknown || s.IsTerminal() {
		return 0, s.transitionError(Failed)
	}
	return Failed, nil
}
