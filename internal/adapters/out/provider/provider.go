// Package provider contains the simulated outbound service adapters used in
// development and tests. Both providers sleep for a configurable latency
// and fail a configurable fraction of calls, which exercises the retry and
// timeout paths of the process without real external services.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// SimulatedPaymentProvider pretends to charge a payment.
type SimulatedPaymentProvider struct {
	failureRate float64
	latency     time.Duration
	logger      *slog.Logger
}

// NewSimulatedPaymentProvider creates a payment provider failing the given
// fraction of calls (0 never fails, 1 always fails).
func NewSimulatedPaymentProvider(failureRate float64, latency time.Duration, logger *slog.Logger) *SimulatedPaymentProvider {
	return &SimulatedPaymentProvider{
		failureRate: failureRate,
		latency:     latency,
		logger:      logger.With("component", "payment_provider"),
	}
}

// Charge simulates the external charge call.
func (p *SimulatedPaymentProvider) Charge(ctx context.Context, idempotencyKey string, orderID kernel.UUID, amount float64) error {
	if err := sleep(ctx, p.latency); err != nil {
		return err
	}
	if rand.Float64() < p.failureRate {
		return fmt.Errorf("payment gateway rejected charge for order %s", orderID.String())
	}
	p.logger.InfoContext(ctx, "Charge accepted",
		"order_id", orderID.String(), "idempotency_key", idempotencyKey, "amount", amount)
	return nil
}

// SimulatedShippingProvider pretends to prepare packages and dispatch
// carriers.
type SimulatedShippingProvider struct {
	failureRate float64
	latency     time.Duration
	logger      *slog.Logger
}

// NewSimulatedShippingProvider creates a shipping provider failing the
// given fraction of calls.
func NewSimulatedShippingProvider(failureRate float64, latency time.Duration, logger *slog.Logger) *SimulatedShippingProvider {
	return &SimulatedShippingProvider{
		failureRate: failureRate,
		latency:     latency,
		logger:      logger.With("component", "shipping_provider"),
	}
}

// PreparePackage simulates packing the order in the warehouse.
func (p *SimulatedShippingProvider) PreparePackage(ctx context.Context, ord *order.Order) error {
	if err := sleep(ctx, p.latency); err != nil {
		return err
	}
	if rand.Float64() < p.failureRate {
		return fmt.Errorf("warehouse could not prepare package for order %s", ord.ID().String())
	}
	p.logger.InfoContext(ctx, "Package prepared", "order_id", ord.ID().String())
	return nil
}

// DispatchCarrier simulates booking the carrier pickup.
func (p *SimulatedShippingProvider) DispatchCarrier(ctx context.Context, ord *order.Order) error {
	if err := sleep(ctx, p.latency); err != nil {
		return err
	}
	if rand.Float64() < p.failureRate {
		return fmt.Errorf("no carrier available for order %s", ord.ID().String())
	}
	p.logger.InfoContext(ctx, "Carrier dispatched", "order_id", ord.ID().String())
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
