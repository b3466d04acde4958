package process

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Event types written by the order process. The event log is append-only:
// one row per transition, never mutated, never deleted.
const (
	EventOrderReceived          = "ORDER_RECEIVED"
	EventOrderValidated         = "ORDER_VALIDATED"
	EventApprovalRequested      = "APPROVAL_REQUESTED"
	EventApprovalGranted        = "APPROVAL_GRANTED"
	EventApprovalTimedOut       = "APPROVAL_TIMED_OUT"
	EventOrderCancelled         = "ORDER_CANCELLED"
	EventAddressUpdated         = "ADDRESS_UPDATED"
	EventPaymentCharged         = "PAYMENT_CHARGED"
	EventShippingAttemptStarted = "SHIPPING_ATTEMPT_STARTED"
	EventShippingRetryScheduled = "SHIPPING_RETRY_SCHEDULED"
	EventPackagePrepared        = "PACKAGE_PREPARED"
	EventCarrierDispatched      = "CARRIER_DISPATCHED"
	EventOrderShipped           = "ORDER_SHIPPED"
	EventOrderCompleted         = "ORDER_COMPLETED"
	EventOrderFailed            = "ORDER_FAILED"
)

// Event is one append-only audit record of the order process.
type Event struct {
	orderID    kernel.UUID
	eventType  string
	payload    map[string]any
	occurredAt time.Time
}

// NewEvent creates an audit event stamped with the current time.
func NewEvent(orderID kernel.UUID, eventType string, payload map[string]any) (Event, error) {
	if err := orderID.Validate(); err != nil {
		return Event{}, err
	}
	if eventType == "" {
		return Event{}, errs.NewValueIsRequiredError("event_type")
	}
	return Event{
		orderID:    orderID,
		eventType:  eventType,
		payload:    payload,
		occurredAt: time.Now().UTC(),
	}, nil
}

// RestoreEvent reconstructs an event read back from the log.
func RestoreEvent(orderID kernel.UUID, eventType string, payload map[string]any, occurredAt time.Time) (Event, error) {
	if err := orderID.Validate(); err != nil {
		return Event{}, err
	}
	if eventType == "" {
		return Event{}, errs.NewValueIsRequiredError("event_type")
	}
	return Event{
		orderID:    orderID,
		eventType:  eventType,
		payload:    payload,
		occurredAt: occurredAt,
	}, nil
}

// OrderID returns the order the event belongs to.
func (e Event) OrderID() kernel.UUID {
	return e.orderID
}

// Type returns the event type constant.
func (e Event) Type() string {
	return e.eventType
}

// Payload returns the event's structured payload, possibly nil.
func (e Event) Payload() map[string]any {
	return e.payload
}

// OccurredAt returns the timestamp the event was recorded with.
func (e Event) OccurredAt() time.Time {
	return e.occurredAt
}
