package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Priority is the operator-assigned urgency tag of an order. It does not
// influence the state machine; it is carried for operator visibility and
// the read models built on top of the orders table.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

// NewPriority parses a priority tag. An empty string defaults to NORMAL,
// matching the upstream order-intake API.
func NewPriority(value string) (Priority, error) {
	if value == "" {
		return PriorityNormal, nil
	}

	p := Priority(value)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Validate checks the priority is one of LOW, NORMAL, HIGH.
func (p Priority) Validate() error {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("priority is invalid",
			fmt.Errorf("%q is not a valid priority", string(p)))
	}
}

// String returns the uppercase tag.
func (p Priority) String() string {
	return string(p)
}
