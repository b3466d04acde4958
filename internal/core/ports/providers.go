package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// PaymentProvider is the external charge effect invoked by the idempotent
// ledger. The ledger guarantees Charge is called at most once per
// idempotency key; the provider itself needs no deduplication.
type PaymentProvider interface {
	Charge(ctx context.Context, idempotencyKey string, orderID kernel.UUID, amount float64) error
}

// ShippingProvider performs the two external steps of the shipping
// subprocess. Each call is one unit of work; a returned error or a missed
// deadline aborts the subprocess attempt.
type ShippingProvider interface {
	PreparePackage(ctx context.Context, ord *order.Order) error
	DispatchCarrier(ctx context.Context, ord *order.Order) error
}
