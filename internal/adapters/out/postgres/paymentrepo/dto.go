// Package paymentrepo persists the idempotent ledger's payment records. The
// idempotency key is the primary key, so the at-most-once guarantee of the
// ledger is enforced by the table itself: two concurrent inserts under the
// same key cannot both succeed.
package paymentrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/payment"

	"github.com/google/uuid"
)

// PaymentDTO represents the database structure for payment records.
type PaymentDTO struct {
	IdempotencyKey string    `gorm:"type:text;primaryKey"`
	OrderID        uuid.UUID `gorm:"type:uuid;index"`
	Status         string    `gorm:"type:text"`
	Amount         float64   `gorm:"type:numeric"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName overrides GORM's default naming convention to use "payments".
func (PaymentDTO) TableName() string {
	return "payments"
}

func fromDomain(aggregate *payment.Payment) PaymentDTO {
	return PaymentDTO{
		IdempotencyKey: aggregate.IdempotencyKey(),
		OrderID:        aggregate.OrderID().Bytes(),
		Status:         string(aggregate.Status()),
		Amount:         aggregate.Amount(),
		CreatedAt:      aggregate.CreatedAt(),
		UpdatedAt:      aggregate.UpdatedAt(),
	}
}

func toDomain(dto PaymentDTO) (*payment.Payment, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	return payment.RestorePayment(
		dto.IdempotencyKey,
		orderID,
		payment.Status(dto.Status),
		dto.Amount,
		dto.CreatedAt,
		dto.UpdatedAt,
	)
}
