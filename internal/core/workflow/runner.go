package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/domain/model/process"
)

// errRunnerStopped is returned by deliver when the runner has shut down
// without the order reaching a terminal state (a persistence failure
// aborted it). The engine reacts by resuming a fresh runner.
var errRunnerStopped = errors.New("process runner stopped")

// ErrApprovalTimeout is the failure reason recorded when no approve or
// cancel command arrives within the approval window.
var ErrApprovalTimeout = errors.New("approval window elapsed without a decision")

// ErrShippingExhausted is the failure reason recorded when every shipping
// attempt failed.
var ErrShippingExhausted = errors.New("shipping failed on all attempts")

// ErrBusy is returned when an order's command queue is full. The command was
// not accepted; it is in a valid window and can be retried.
var ErrBusy = errors.New("order is busy: command queue is full")

// envelope carries one command into the runner's inbox. reply receives the
// command's acceptance or rejection; it is nil for commands restored from
// the durable FIFO during resume, which have already been acknowledged.
type envelope struct {
	sig   process.Signal
	reply chan error
}

func (e *envelope) replyErr(err error) {
	if e.reply != nil {
		e.reply <- err
	}
}

// decision is the outcome of evaluating queued commands at a suspend point.
type decision int

const (
	decisionNone decision = iota
	decisionApproved
	decisionCancelled
)

// runner drives one order's process instance. All state transitions for an
// order happen on its runner goroutine; commands enter through the inbox
// and are acknowledged only after the durable FIFO recorded them. The mutex
// covers the instance row (deliver appends to its pending FIFO while the
// loop consumes it) and the closed flag; the loop touches the instance only
// through the locked helpers below.
type runner struct {
	eng  *Engine
	ord  *order.Order
	inst *process.Instance

	inbox chan *envelope
	done  chan struct{}

	// carry holds envelopes drained at a suspend point but not yet
	// evaluated when the state advanced mid-batch.
	carry []*envelope

	// freshCharge is set when the approve transition happened on this
	// runner. On a resumed ChargingPayment step the flag is false and the
	// charge is replayed before any queued cancel is evaluated: the
	// pre-crash runner may already have invoked the provider, so the
	// ledger record, not the queue, decides.
	freshCharge bool

	mu       sync.Mutex
	closed   bool
	terminal order.Status

	logger *slog.Logger
}

func newRunner(eng *Engine, ord *order.Order, inst *process.Instance) *runner {
	return &runner{
		eng:    eng,
		ord:    ord,
		inst:   inst,
		inbox:  make(chan *envelope, 64),
		done:   make(chan struct{}),
		logger: eng.logger.With("order_id", ord.ID().String()),
	}
}

// deliver hands a command to the runner and blocks until the runner applied
// or rejected it. The command is appended to the durable FIFO before the
// call returns, so an acknowledged command survives a crash.
func (r *runner) deliver(ctx context.Context, sig process.Signal) error {
	env := &envelope{sig: sig, reply: make(chan error, 1)}

	r.mu.Lock()
	if r.closed {
		terminal := r.terminal
		r.mu.Unlock()
		if terminal.IsTerminal() {
			return sig.ValidateFor(terminal)
		}
		return errRunnerStopped
	}
	r.inst.EnqueueSignal(sig)
	if err := r.persistInstanceLocked(ctx); err != nil {
		r.inst.DropLastSignal()
		r.mu.Unlock()
		return err
	}
	select {
	case r.inbox <- env:
	default:
		r.inst.DropLastSignal()
		if err := r.persistInstanceLocked(ctx); err != nil {
			r.logger.Error("failed to roll back rejected command", "error", err)
		}
		r.mu.Unlock()
		return ErrBusy
	}
	r.mu.Unlock()

	select {
	case err := <-env.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Locked instance accessors. deliver mutates the same instance from Signal
// callers' goroutines, so the loop never touches r.inst directly.

func (r *runner) setStep(step order.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inst.SetStep(step)
}

func (r *runner) suspendUntil(deadline time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inst.Suspend(deadline)
}

func (r *runner) suspendDeadline() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inst.SuspendDeadline()
}

func (r *runner) clearSuspend() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inst.ClearSuspend()
}

// consumeSignal removes an applied command from the in-memory FIFO; the
// durable removal rides on the next persistState.
func (r *runner) consumeSignal(sig process.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inst.RemoveSignal(sig)
}

func (r *runner) beginAttempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inst.BeginAttempt()
}

func (r *runner) attempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inst.Attempt()
}

// run is the process loop. Each iteration executes the step matching the
// order's current status and persists the transition before moving on; a
// persistence failure aborts the runner and leaves resumption to the
// recovery job.
func (r *runner) run() {
	ctx := context.Background()
	for {
		var err error
		switch status := r.ord.Status(); status {
		case order.Receiving, order.Validating:
			_, err = r.validateStep(ctx)
		case order.AwaitingApproval:
			err = r.awaitApproval(ctx)
		case order.ChargingPayment:
			err = r.chargePayment(ctx)
		case order.Shipping:
			err = r.ship(ctx)
		case order.MarkingShipped:
			err = r.markShipped(ctx)
		default:
			r.finish(ctx)
			return
		}
		if err != nil {
			r.abort(ctx, err)
			return
		}
	}
}

// validateStep moves the order through VALIDATING. Invalid details fail the
// process; valid ones park it at the approval suspend point with the
// deadline persisted, so a restart resumes the same window instead of
// granting a new one. The first return value is the validation error, kept
// separate so a synchronous caller can surface it; the second is a
// persistence error.
func (r *runner) validateStep(ctx context.Context) (error, error) {
	if r.ord.Status() == order.Receiving {
		if err := r.ord.BeginValidation(); err != nil {
			return nil, err
		}
		if err := r.setStep(order.Validating); err != nil {
			return nil, err
		}
		if err := r.persistState(ctx, nil); err != nil {
			return nil, err
		}
	}

	if valErr := r.ord.ValidateDetails(); valErr != nil {
		if err := r.failProcess(ctx, valErr.Error()); err != nil {
			return nil, err
		}
		return valErr, nil
	}

	if err := r.ord.AwaitApproval(); err != nil {
		return nil, err
	}
	if err := r.setStep(order.AwaitingApproval); err != nil {
		return nil, err
	}
	r.suspendUntil(time.Now().UTC().Add(r.eng.cfg.ApprovalTimeout))
	events := []string{process.EventOrderValidated, process.EventApprovalRequested}
	if err := r.persistState(ctx, nil, events...); err != nil {
		return nil, err
	}
	return nil, nil
}

// awaitApproval parks the process until an approve or cancel command
// arrives or the persisted deadline passes. Commands queued together are
// evaluated as one batch with cancel taking precedence over approve.
func (r *runner) awaitApproval(ctx context.Context) error {
	deadline := r.suspendDeadline()
	if deadline == nil {
		d := time.Now().UTC().Add(r.eng.cfg.ApprovalTimeout)
		r.suspendUntil(d)
		if err := r.persistState(ctx, nil); err != nil {
			return err
		}
		deadline = &d
	}

	for {
		batch := append(r.takeCarry(), r.drain()...)
		dec, err := r.processBatch(ctx, batch)
		if err != nil {
			return err
		}
		if dec != decisionNone {
			return nil
		}

		remaining := time.Until(*deadline)
		if remaining <= 0 {
			return r.approvalTimeout(ctx)
		}
		timer := time.NewTimer(remaining)
		select {
		case env := <-r.inbox:
			timer.Stop()
			batch = append([]*envelope{env}, r.drain()...)
			dec, err = r.processBatch(ctx, batch)
			if err != nil {
				return err
			}
			if dec != decisionNone {
				return nil
			}
		case <-timer.C:
			return r.approvalTimeout(ctx)
		}
	}
}

// processBatch applies queued commands in receipt order, except that a
// pending cancel is pulled forward: when a cancel and an approve are queued
// together, cancellation wins regardless of queue position. Commands left
// over after a transition are carried into the next step's evaluation.
func (r *runner) processBatch(ctx context.Context, batch []*envelope) (decision, error) {
	for len(batch) > 0 {
		idx := 0
		for i, env := range batch {
			if env.sig.Kind == process.SignalCancel {
				idx = i
				break
			}
		}
		env := batch[idx]
		batch = append(batch[:idx:idx], batch[idx+1:]...)

		dec, err := r.applyAtSuspend(ctx, env)
		if err != nil {
			r.carry = append(batch, r.carry...)
			return decisionNone, err
		}
		switch dec {
		case decisionCancelled:
			r.carry = batch
			return decisionCancelled, nil
		case decisionApproved:
			r.carry = batch
			return decisionApproved, nil
		}
	}
	return decisionNone, nil
}

// applyAtSuspend applies one command while the order waits for approval.
func (r *runner) applyAtSuspend(ctx context.Context, env *envelope) (decision, error) {
	sig := env.sig
	if err := sig.ValidateFor(r.ord.Status()); err != nil {
		if perr := r.dropPending(ctx, sig); perr != nil {
			return decisionNone, perr
		}
		env.replyErr(err)
		return decisionNone, nil
	}

	switch sig.Kind {
	case process.SignalCancel:
		if err := r.ord.Cancel(); err != nil {
			env.replyErr(err)
			return decisionNone, err
		}
		if err := r.setStep(order.Cancelled); err != nil {
			return decisionNone, err
		}
		r.clearSuspend()
		r.consumeSignal(sig)
		if err := r.persistState(ctx, nil, process.EventOrderCancelled); err != nil {
			return decisionNone, err
		}
		env.replyErr(nil)
		return decisionCancelled, nil

	case process.SignalApprove:
		if err := r.ord.Approve(); err != nil {
			env.replyErr(err)
			return decisionNone, err
		}
		if err := r.ord.BeginCharging(); err != nil {
			return decisionNone, err
		}
		if err := r.setStep(order.ChargingPayment); err != nil {
			return decisionNone, err
		}
		r.clearSuspend()
		r.consumeSignal(sig)
		if err := r.persistState(ctx, nil, process.EventApprovalGranted); err != nil {
			return decisionNone, err
		}
		r.freshCharge = true
		env.replyErr(nil)
		return decisionApproved, nil

	case process.SignalUpdateAddress:
		r.ord.UpdateAddress(sig.Address)
		r.consumeSignal(sig)
		if err := r.persistState(ctx, nil, process.EventAddressUpdated); err != nil {
			return decisionNone, err
		}
		env.replyErr(nil)
		return decisionNone, nil
	}
	return decisionNone, nil
}

func (r *runner) approvalTimeout(ctx context.Context) error {
	r.logger.Info("approval window elapsed, failing order")
	return r.failProcess(ctx, ErrApprovalTimeout.Error(), process.EventApprovalTimedOut)
}

// chargePayment runs the idempotent charge. On a fresh entry any cancel
// already queued behind the approve still wins; on a resumed entry the
// charge is replayed first and queued commands are evaluated against the
// post-charge state.
func (r *runner) chargePayment(ctx context.Context) error {
	batch := append(r.takeCarry(), r.drain()...)
	if r.freshCharge {
		r.freshCharge = false
		var rest []*envelope
		for i, env := range batch {
			if env.sig.Kind != process.SignalCancel {
				continue
			}
			if err := r.ord.Cancel(); err != nil {
				return err
			}
			if err := r.setStep(order.Cancelled); err != nil {
				return err
			}
			r.consumeSignal(env.sig)
			if err := r.persistState(ctx, nil, process.EventOrderCancelled); err != nil {
				return err
			}
			env.replyErr(nil)
			rest = append(batch[:i:i], batch[i+1:]...)
			return r.rejectAll(ctx, rest)
		}
	}

	cctx, cancel := context.WithTimeout(ctx, r.eng.cfg.ChargeTimeout)
	res, chargeErr := r.eng.ledger.Charge(cctx, r.inst.IdempotencyKey(), r.ord.ID(), r.ord.Total())
	cancel()

	// A replayed settlement that never reached CHARGED counts as a failed
	// charge: the external outcome is unknown and must not be retried under
	// the same key.
	if chargeErr == nil && res.Status != payment.StatusCharged {
		chargeErr = fmt.Errorf("%w: settlement recorded as %s", ErrChargeFailed, res.Status)
	}
	if chargeErr != nil {
		if err := r.failProcess(ctx, chargeErr.Error()); err != nil {
			return err
		}
		return r.rejectAll(ctx, batch)
	}

	if err := r.ord.BeginShipping(); err != nil {
		return err
	}
	if err := r.setStep(order.Shipping); err != nil {
		return err
	}
	if err := r.persistState(ctx, nil); err != nil {
		return err
	}
	return r.rejectAll(ctx, batch)
}

// ship runs the shipping subprocess under the bounded attempt budget. The
// attempt counter is persisted before each try, so a restart mid-attempt
// resumes the budget instead of resetting it.
func (r *runner) ship(ctx context.Context) error {
	maxAttempts := r.eng.cfg.ShippingAttempts
	var lastReason string

	for r.attempt() < maxAttempts {
		if err := r.rejectQueued(ctx); err != nil {
			return err
		}

		attempt := r.beginAttempt()
		if err := r.persistState(ctx, map[string]any{"attempt": attempt}, process.EventShippingAttemptStarted); err != nil {
			return err
		}

		sub := newShippingSubprocess(r.eng.shipping, r.eng.cfg.StepTimeout, r.recordEvent)
		outcome := sub.Run(ctx, r.ord)
		if outcome.IsSuccess() {
			if err := r.ord.MarkShipped(); err != nil {
				return err
			}
			if err := r.setStep(order.MarkingShipped); err != nil {
				return err
			}
			return r.persistState(ctx, map[string]any{"attempt": attempt}, process.EventOrderShipped)
		}

		lastReason = outcome.Reason
		r.logger.Warn("shipping attempt failed",
			"attempt", attempt, "max_attempts", maxAttempts, "reason", outcome.Reason)
		if r.attempt() >= maxAttempts {
			break
		}
		if err := r.recordEvent(ctx, process.EventShippingRetryScheduled,
			map[string]any{"attempt": attempt, "reason": outcome.Reason}); err != nil {
			return err
		}
		if err := r.rejectingSleep(ctx, r.eng.cfg.ShippingRetryDelay); err != nil {
			return err
		}
	}

	// A resumed instance whose persisted counter already reached the budget
	// skips the loop and has no failure reason of its own.
	if lastReason == "" {
		lastReason = "interrupted final attempt"
	}
	return r.failProcess(ctx,
		fmt.Sprintf("%s: %s", ErrShippingExhausted, lastReason))
}

func (r *runner) markShipped(ctx context.Context) error {
	if err := r.ord.Complete(); err != nil {
		return err
	}
	if err := r.setStep(order.Completed); err != nil {
		return err
	}
	return r.persistState(ctx, nil, process.EventOrderCompleted)
}

// failProcess transitions the order to FAILED with the given reason,
// recording the listed events plus the terminal ORDER_FAILED.
func (r *runner) failProcess(ctx context.Context, reason string, events ...string) error {
	if err := r.ord.Fail(reason); err != nil {
		return err
	}
	if err := r.setStep(order.Failed); err != nil {
		return err
	}
	r.clearSuspend()
	events = append(events, process.EventOrderFailed)
	return r.persistState(ctx, map[string]any{"reason": reason}, events...)
}

// finish rejects whatever is still queued and publishes the terminal
// status. After the closed flag is set no new command can enter the inbox.
func (r *runner) finish(ctx context.Context) {
	r.mu.Lock()
	r.terminal = r.ord.Status()
	r.closed = true
	r.mu.Unlock()

	leftovers := append(r.takeCarry(), r.drain()...)
	if err := r.rejectAll(ctx, leftovers); err != nil {
		r.logger.Error("failed to reject queued commands at shutdown", "error", err)
	}

	r.eng.unregister(r.ord.ID())
	close(r.done)
	r.logger.Info("process finished", "status", r.terminal.String())
}

// abort shuts the runner down after a persistence failure. The order is
// not terminal; the recovery job resumes it from the last committed state.
func (r *runner) abort(ctx context.Context, cause error) {
	r.logger.Error("process runner aborted", "error", cause)

	r.mu.Lock()
	r.terminal = r.ord.Status()
	r.closed = true
	r.mu.Unlock()

	for _, env := range append(r.takeCarry(), r.drain()...) {
		env.replyErr(cause)
	}

	r.eng.unregister(r.ord.ID())
	close(r.done)
}

// rejectQueued rejects every command currently in the inbox against the
// order's current status.
func (r *runner) rejectQueued(ctx context.Context) error {
	return r.rejectAll(ctx, append(r.takeCarry(), r.drain()...))
}

func (r *runner) rejectAll(ctx context.Context, envs []*envelope) error {
	for _, env := range envs {
		err := env.sig.ValidateFor(r.ord.Status())
		if err == nil {
			err = fmt.Errorf("%w: %s no longer applicable", process.ErrInvalidStateTransition, env.sig.Kind)
		}
		if perr := r.dropPending(ctx, env.sig); perr != nil {
			return perr
		}
		env.replyErr(err)
	}
	return nil
}

// rejectingSleep waits out the retry delay while rejecting any command that
// arrives, so callers get an immediate answer instead of queueing behind
// the backoff.
func (r *runner) rejectingSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case env := <-r.inbox:
			if err := r.rejectAll(ctx, []*envelope{env}); err != nil {
				return err
			}
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drain empties the inbox without blocking.
func (r *runner) drain() []*envelope {
	var out []*envelope
	for {
		select {
		case env := <-r.inbox:
			out = append(out, env)
		default:
			return out
		}
	}
}

func (r *runner) takeCarry() []*envelope {
	carry := r.carry
	r.carry = nil
	return carry
}

// dropPending removes a consumed command from the durable FIFO.
func (r *runner) dropPending(ctx context.Context, sig process.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inst.RemoveSignal(sig)
	return r.persistInstanceLocked(ctx)
}

// recordEvent appends one audit event in its own transaction. Used for
// events that are observations rather than state transitions.
func (r *runner) recordEvent(ctx context.Context, eventType string, payload map[string]any) error {
	event, err := process.NewEvent(r.ord.ID(), eventType, payload)
	if err != nil {
		return err
	}
	uow := r.eng.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()
	if err := uow.EventRepository().Append(ctx, event); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

// persistState commits the order, the instance, and the listed audit events
// in one transaction. payload, when non-nil, is attached to every event.
func (r *runner) persistState(ctx context.Context, payload map[string]any, eventTypes ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uow := r.eng.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	if err := uow.OrderRepository().Update(ctx, r.ord); err != nil {
		return err
	}
	if err := uow.InstanceRepository().Update(ctx, r.inst); err != nil {
		return err
	}
	for _, eventType := range eventTypes {
		event, err := process.NewEvent(r.ord.ID(), eventType, payload)
		if err != nil {
			return err
		}
		if err := uow.EventRepository().Append(ctx, event); err != nil {
			return err
		}
	}
	return uow.Commit(ctx)
}

// persistInstanceLocked updates only the instance row. Caller holds r.mu.
func (r *runner) persistInstanceLocked(ctx context.Context) error {
	uow := r.eng.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()
	if err := uow.InstanceRepository().Update(ctx, r.inst); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
