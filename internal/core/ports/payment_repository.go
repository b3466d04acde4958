package ports

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/payment"
)

// ErrDuplicateIdempotencyKey is returned by Add when a record with the same
// idempotency key already exists. The uniqueness must be enforced by the
// storage layer itself so that two concurrent attempts with the same key
// cannot both insert.
var ErrDuplicateIdempotencyKey = errors.New("payment record already exists for idempotency key")

// PaymentRepository defines the persistence contract of the idempotent
// ledger's payment records.
type PaymentRepository interface {
	// Add inserts a new payment record. Returns ErrDuplicateIdempotencyKey
	// when a record with the same key is already stored.
	Add(ctx context.Context, aggregate *payment.Payment) error

	// Update persists a settlement-status change of an existing record.
	Update(ctx context.Context, aggregate *payment.Payment) error

	// GetByIdempotencyKey retrieves the record stored under the given key.
	// Returns an errs.ObjectNotFoundError when no record exists.
	GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error)
}
