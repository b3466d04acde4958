package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/process"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// Config holds the engine's timing and retry knobs. Zero values are
// replaced with defaults.
type Config struct {
	// ApprovalTimeout bounds the wait at the approval suspend point.
	ApprovalTimeout time.Duration

	// ChargeTimeout bounds one payment-charge call end to end.
	ChargeTimeout time.Duration

	// StepTimeout bounds each shipping subprocess step.
	StepTimeout time.Duration

	// ShippingAttempts is the total attempt budget of the shipping
	// subprocess, first try included.
	ShippingAttempts int

	// ShippingRetryDelay is the fixed pause between shipping attempts.
	ShippingRetryDelay time.Duration

	// ChargeAttempts and ChargeRetryDelay govern the ledger's bounded
	// retry against transient provider failures within one charge.
	ChargeAttempts   int
	ChargeRetryDelay time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ApprovalTimeout:    30 * time.Second,
		ChargeTimeout:      4 * time.Second,
		StepTimeout:        4 * time.Second,
		ShippingAttempts:   3,
		ShippingRetryDelay: 2 * time.Second,
		ChargeAttempts:     3,
		ChargeRetryDelay:   500 * time.Millisecond,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.ApprovalTimeout <= 0 {
		c.ApprovalTimeout = def.ApprovalTimeout
	}
	if c.ChargeTimeout <= 0 {
		c.ChargeTimeout = def.ChargeTimeout
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = def.StepTimeout
	}
	if c.ShippingAttempts <= 0 {
		c.ShippingAttempts = def.ShippingAttempts
	}
	if c.ShippingRetryDelay <= 0 {
		c.ShippingRetryDelay = def.ShippingRetryDelay
	}
	if c.ChargeAttempts <= 0 {
		c.ChargeAttempts = def.ChargeAttempts
	}
	if c.ChargeRetryDelay <= 0 {
		c.ChargeRetryDelay = def.ChargeRetryDelay
	}
	return c
}

// StartRequest carries the inputs of a new order process.
type StartRequest struct {
	OrderID     kernel.UUID
	CustomerRef string
	Total       float64
	Priority    order.Priority

	// IdempotencyKey scopes the payment charge. Empty means the default
	// key derived from the order id.
	IdempotencyKey string
}

// StatusSnapshot is a point-in-time read of one order's process state.
type StatusSnapshot struct {
	OrderID     kernel.UUID
	State       order.Status
	CustomerRef string
	Total       float64
	Priority    order.Priority
	Address     *order.Address
	Approved    bool
	Cancelled   bool
	LastError   *string
	UpdatedAt   time.Time
}

// Engine is the single entry point for order processes. It owns one runner
// goroutine per in-flight order; commands addressed to the same order are
// applied strictly one at a time in arrival order, while different orders
// proceed concurrently.
type Engine struct {
	cfg        Config
	uowFactory ports.UnitOfWorkFactory
	ledger     *Ledger
	shipping   ports.ShippingProvider
	logger     *slog.Logger

	mu      sync.Mutex
	runners map[kernel.UUID]*runner
}

// NewEngine wires the engine with its outbound dependencies.
func NewEngine(
	uowFactory ports.UnitOfWorkFactory,
	paymentProvider ports.PaymentProvider,
	shippingProvider ports.ShippingProvider,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	cfg = cfg.normalized()
	return &Engine{
		cfg:        cfg,
		uowFactory: uowFactory,
		ledger:     NewLedger(uowFactory, paymentProvider, cfg.ChargeAttempts, cfg.ChargeRetryDelay, logger),
		shipping:   shippingProvider,
		logger:     logger.With("component", "engine"),
		runners:    make(map[kernel.UUID]*runner),
	}
}

// Start creates a new order process. The call returns once the order passed
// (or failed) validation: a validation failure is reported to the caller
// and the order is left FAILED. Starting an order id twice returns an
// already-exists error; the running process is untouched.
func (e *Engine) Start(ctx context.Context, req StartRequest) error {
	ord, err := order.NewOrder(req.OrderID, req.CustomerRef, req.Total, req.Priority)
	if err != nil {
		return err
	}
	key := req.IdempotencyKey
	if key == "" {
		key = "payment-" + req.OrderID.String()
	}
	inst, err := process.NewInstance(req.OrderID, key)
	if err != nil {
		return err
	}

	r := newRunner(e, ord, inst)
	e.mu.Lock()
	if _, exists := e.runners[req.OrderID]; exists {
		e.mu.Unlock()
		return errs.NewObjectAlreadyExistsError("order", req.OrderID.String())
	}
	e.runners[req.OrderID] = r
	e.mu.Unlock()

	if err := e.persistStart(ctx, ord, inst); err != nil {
		e.unregister(req.OrderID)
		return err
	}

	valErr, err := r.validateStep(ctx)
	if err != nil {
		e.unregister(req.OrderID)
		return err
	}
	go r.run()
	return valErr
}

// persistStart inserts the order and instance rows together with the
// ORDER_RECEIVED event. A duplicate order id surfaces here as an
// already-exists error from storage.
func (e *Engine) persistStart(ctx context.Context, ord *order.Order, inst *process.Instance) error {
	event, err := process.NewEvent(ord.ID(), process.EventOrderReceived, map[string]any{
		"customer_ref": ord.CustomerRef(),
		"total":        ord.Total(),
		"priority":     ord.Priority().String(),
	})
	if err != nil {
		return err
	}

	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OrderRepository().Add(ctx, ord); err != nil {
		return err
	}
	if err := uow.InstanceRepository().Add(ctx, inst); err != nil {
		return err
	}
	if err := uow.EventRepository().Append(ctx, event); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

// Signal routes one command to an order's runner and blocks until the
// command was applied or rejected. An order with no live runner is resumed
// from storage first; commands to terminal orders are rejected.
func (e *Engine) Signal(ctx context.Context, orderID kernel.UUID, kind process.SignalKind, address order.Address) error {
	sig, err := process.NewSignal(kind, address)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < 3; attempt++ {
		r := e.runner(orderID)
		if r == nil {
			var snapshot *order.Order
			r, snapshot, err = e.ensureRunner(ctx, orderID)
			if err != nil {
				return err
			}
			if r == nil {
				return sig.ValidateFor(snapshot.Status())
			}
		}
		err = r.deliver(ctx, sig)
		if !errors.Is(err, errRunnerStopped) {
			return err
		}
		// The runner shut down between lookup and delivery; resume and
		// retry against the fresh one.
	}
	return errRunnerStopped
}

// Status reads one order's current state from storage.
func (e *Engine) Status(ctx context.Context, orderID kernel.UUID) (StatusSnapshot, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return StatusSnapshot{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ord, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return StatusSnapshot{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return StatusSnapshot{}, err
	}
	return snapshotOf(ord), nil
}

func snapshotOf(ord *order.Order) StatusSnapshot {
	return StatusSnapshot{
		OrderID:     ord.ID(),
		State:       ord.Status(),
		CustomerRef: ord.CustomerRef(),
		Total:       ord.Total(),
		Priority:    ord.Priority(),
		Address:     ord.Address(),
		Approved:    ord.Approved(),
		Cancelled:   ord.Cancelled(),
		LastError:   ord.LastError(),
		UpdatedAt:   ord.UpdatedAt(),
	}
}

// Result blocks until the order's process reaches a terminal state and
// returns it. Returns immediately for orders already terminal.
func (e *Engine) Result(ctx context.Context, orderID kernel.UUID) (order.Status, error) {
	for {
		r := e.runner(orderID)
		if r == nil {
			var snapshot *order.Order
			var err error
			r, snapshot, err = e.ensureRunner(ctx, orderID)
			if err != nil {
				return order.Unknown, err
			}
			if r == nil {
				return snapshot.Status(), nil
			}
		}

		select {
		case <-r.done:
		case <-ctx.Done():
			return order.Unknown, ctx.Err()
		}
		if r.terminal.IsTerminal() {
			return r.terminal, nil
		}
		// The runner aborted without finishing; resume and wait again.
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return order.Unknown, ctx.Err()
		}
	}
}

// Reconcile resumes every non-terminal instance that has no live runner.
// Called once at startup and periodically by the recovery job.
func (e *Engine) Reconcile(ctx context.Context) error {
	instances, err := e.loadActive(ctx)
	if err != nil {
		return err
	}
	for _, inst := range instances {
		if e.runner(inst.OrderID()) != nil {
			continue
		}
		if _, _, err := e.ensureRunner(ctx, inst.OrderID()); err != nil {
			e.logger.ErrorContext(ctx, "Failed to resume instance",
				"order_id", inst.OrderID().String(), "error", err)
		}
	}
	return nil
}

func (e *Engine) loadActive(ctx context.Context) ([]*process.Instance, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	instances, err := uow.InstanceRepository().GetAllActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return instances, nil
}

// ensureRunner loads an order from storage and resumes its runner. For a
// terminal order it returns (nil, snapshot, nil) instead of a runner.
// Persisted pending commands are re-queued into the resumed runner's inbox
// in their stored order.
func (e *Engine) ensureRunner(ctx context.Context, orderID kernel.UUID) (*runner, *order.Order, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ord, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if ord.Status().IsTerminal() {
		_ = uow.Commit(ctx)
		return nil, ord, nil
	}
	inst, err := uow.InstanceRepository().Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, nil, err
	}

	r := newRunner(e, ord, inst)
	// The inbox is filled before the runner is published: once it is in the
	// map, Signal callers append to the same instance FIFO, and restored
	// commands must stay ahead of new arrivals.
	for _, sig := range inst.PendingSignals() {
		r.inbox <- &envelope{sig: sig}
	}
	e.mu.Lock()
	if existing, ok := e.runners[orderID]; ok {
		e.mu.Unlock()
		return existing, nil, nil
	}
	e.runners[orderID] = r
	e.mu.Unlock()
	e.logger.InfoContext(ctx, "Resuming process instance",
		"order_id", orderID.String(), "step", inst.Step().String())
	go r.run()
	return r, nil, nil
}

func (e *Engine) runner(orderID kernel.UUID) *runner {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runners[orderID]
}

func (e *Engine) unregister(orderID kernel.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.runners, orderID)
}
