package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/domain/model/process"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// ErrChargeFailed is returned when the external charge effect failed
// unrecoverably after the ledger's bounded retry budget.
var ErrChargeFailed = errors.New("payment charge failed")

// ChargeResult is the stored settlement state returned to the caller.
// Repeated Charge calls with the same idempotency key return identical
// results.
type ChargeResult struct {
	Status payment.Status
	Amount float64
}

// Ledger records payment-charge attempts keyed by a caller-supplied
// idempotency key and guarantees at most one external charge effect per key.
//
// The at-most-once property rests on two legs: the payments table's unique
// key constraint (enforced by storage, closing the race between concurrent
// attempts), and the record-before-charge ordering: a record is inserted as
// PENDING before the provider is invoked, so a crash in between replays as
// "already attempted" rather than as a second charge.
type Ledger struct {
	uowFactory ports.UnitOfWorkFactory
	provider   ports.PaymentProvider
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewLedger creates a ledger performing the external charge through
// provider with the given bounded retry policy for transient failures.
func NewLedger(
	uowFactory ports.UnitOfWorkFactory,
	provider ports.PaymentProvider,
	attempts int,
	retryDelay time.Duration,
	logger *slog.Logger,
) *Ledger {
	if attempts < 1 {
		attempts = 1
	}
	return &Ledger{
		uowFactory: uowFactory,
		provider:   provider,
		attempts:   attempts,
		retryDelay: retryDelay,
		logger:     logger.With("component", "ledger"),
	}
}

// Charge settles the payment for an order at most once per idempotency key.
//
// If a record already exists under the key, whether from an earlier call, a
// replay after restart, or a concurrent attempt that won the insert race,
// its stored {status, amount} is returned unchanged and no side effect is
// performed. Otherwise a PENDING record is inserted (uniqueness enforced by
// the storage layer), the external charge runs with a bounded retry, and the
// resulting status is persisted.
func (l *Ledger) Charge(ctx context.Context, idempotencyKey string, orderID kernel.UUID, amount float64) (ChargeResult, error) {
	if existing, found, err := l.lookup(ctx, idempotencyKey); err != nil {
		return ChargeResult{}, err
	} else if found {
		return existing, nil
	}

	record, err := payment.NewPayment(idempotencyKey, orderID, amount)
	if err != nil {
		return ChargeResult{}, err
	}

	if err := l.insertPending(ctx, record); err != nil {
		if errors.Is(err, ports.ErrDuplicateIdempotencyKey) {
			// A concurrent or prior attempt won the insert. Not an error:
			// re-read and return what it stored.
			existing, found, lookupErr := l.lookup(ctx, idempotencyKey)
			if lookupErr != nil {
				return ChargeResult{}, lookupErr
			}
			if !found {
				return ChargeResult{}, errs.NewObjectNotFoundError("idempotency_key", idempotencyKey)
			}
			return existing, nil
		}
		return ChargeResult{}, err
	}

	chargeErr := l.chargeWithRetry(ctx, idempotencyKey, orderID, amount)
	if chargeErr != nil {
		record.MarkFailed()
		if err := l.persistSettlement(ctx, record, nil); err != nil {
			return ChargeResult{}, err
		}
		return ChargeResult{Status: record.Status(), Amount: record.Amount()},
			fmt.Errorf("%w: %s", ErrChargeFailed, chargeErr)
	}

	record.MarkCharged()
	event, err := process.NewEvent(orderID, process.EventPaymentCharged, map[string]any{
		"idempotency_key": idempotencyKey,
		"amount":          amount,
	})
	if err != nil {
		return ChargeResult{}, err
	}
	if err := l.persistSettlement(ctx, record, &event); err != nil {
		return ChargeResult{}, err
	}

	l.logger.InfoContext(ctx, "Payment charged",
		"order_id", orderID.String(), "idempotency_key", idempotencyKey, "amount", amount)
	return ChargeResult{Status: record.Status(), Amount: record.Amount()}, nil
}

func (l *Ledger) lookup(ctx context.Context, idempotencyKey string) (ChargeResult, bool, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ChargeResult{}, false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	record, err := uow.PaymentRepository().GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ChargeResult{}, false, nil
		}
		return ChargeResult{}, false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ChargeResult{}, false, err
	}
	return ChargeResult{Status: record.Status(), Amount: record.Amount()}, true, nil
}

func (l *Ledger) insertPending(ctx context.Context, record *payment.Payment) error {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.PaymentRepository().Add(ctx, record); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

func (l *Ledger) persistSettlement(ctx context.Context, record *payment.Payment, event *process.Event) error {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.PaymentRepository().Update(ctx, record); err != nil {
		return err
	}
	if event != nil {
		if err := uow.EventRepository().Append(ctx, *event); err != nil {
			return err
		}
	}
	return uow.Commit(ctx)
}

func (l *Ledger) chargeWithRetry(ctx context.Context, idempotencyKey string, orderID kernel.UUID, amount float64) error {
	var lastErr error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		lastErr = l.provider.Charge(ctx, idempotencyKey, orderID, amount)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		l.logger.WarnContext(ctx, "Charge attempt failed",
			"order_id", orderID.String(), "attempt", attempt, "error", lastErr)
		if attempt < l.attempts {
			select {
			case <-time.After(l.retryDelay):
			case <-ctx.Done():
				return lastErr
			}
		}
	}
	return lastErr
}
