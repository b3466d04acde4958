// Package instancerepo persists process-instance bookkeeping rows: the
// current step, the shipping attempt counter, the suspend deadline, and the
// durable pending-command FIFO. Together with the order row this is all the
// state a restart needs to resume a process.
package instancerepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/process"

	"github.com/google/uuid"
)

// InstanceDTO represents one process-instance row. Pending commands are
// stored as a JSON array in arrival order.
type InstanceDTO struct {
	OrderID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Step            int              `gorm:"index"`
	Attempt         int
	SuspendDeadline *time.Time
	IdempotencyKey  string           `gorm:"type:text"`
	Pending         []process.Signal `gorm:"serializer:json;type:jsonb"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName overrides GORM's default naming convention to use
// "process_instances".
func (InstanceDTO) TableName() string {
	return "process_instances"
}

func fromDomain(aggregate *process.Instance) InstanceDTO {
	return InstanceDTO{
		OrderID:         aggregate.OrderID().Bytes(),
		Step:            int(aggregate.Step()),
		Attempt:         aggregate.Attempt(),
		SuspendDeadline: aggregate.SuspendDeadline(),
		IdempotencyKey:  aggregate.IdempotencyKey(),
		Pending:         aggregate.PendingSignals(),
		CreatedAt:       aggregate.CreatedAt(),
		UpdatedAt:       aggregate.UpdatedAt(),
	}
}

func toDomain(dto InstanceDTO) (*process.Instance, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	return process.RestoreInstance(
		orderID,
		order.Status(dto.Step),
		dto.Attempt,
		dto.SuspendDeadline,
		dto.IdempotencyKey,
		dto.Pending,
		dto.CreatedAt,
		dto.UpdatedAt,
	)
}
