// Package eventrepo persists the append-only process event log. Rows are
// only ever inserted; there is no update or delete path.
package eventrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/process"

	"github.com/google/uuid"
)

// EventDTO represents one audit log row. The surrogate id preserves insert
// order within an order's history.
type EventDTO struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	OrderID    uuid.UUID      `gorm:"type:uuid;index"`
	EventType  string         `gorm:"type:text"`
	Payload    map[string]any `gorm:"serializer:json;type:jsonb"`
	OccurredAt time.Time
}

// TableName overrides GORM's default naming convention to use "order_events".
func (EventDTO) TableName() string {
	return "order_events"
}

func fromDomain(event process.Event) EventDTO {
	return EventDTO{
		OrderID:    event.OrderID().Bytes(),
		EventType:  event.Type(),
		Payload:    event.Payload(),
		OccurredAt: event.OccurredAt(),
	}
}

func toDomain(dto EventDTO) (process.Event, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return process.Event{}, err
	}

	return process.RestoreEvent(orderID, dto.EventType, dto.Payload, dto.OccurredAt)
}
