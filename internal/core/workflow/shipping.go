package workflow

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/process"
	"fulfillment/internal/core/ports"
)

// OutcomeKind tags the tri-state result of one shipping subprocess run.
type OutcomeKind int

const (
	// OutcomeSuccess means both subprocess steps completed in order.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeTransientFailure means a step failed or missed its deadline.
	// The parent process decides whether to run a fresh attempt.
	OutcomeTransientFailure

	// OutcomeExhausted is reserved for subprocesses that own their retry
	// budget. The shipping subprocess never returns it: its retry policy
	// lives in the parent.
	OutcomeExhausted
)

// Outcome is the tagged result the subprocess reports to its caller.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Success builds a successful outcome.
func Success() Outcome {
	return Outcome{Kind: OutcomeSuccess}
}

// TransientFailure builds a retryable failure outcome carrying its reason.
func TransientFailure(reason string) Outcome {
	return Outcome{Kind: OutcomeTransientFailure, Reason: reason}
}

// IsSuccess reports whether the subprocess completed.
func (o Outcome) IsSuccess() bool {
	return o.Kind == OutcomeSuccess
}

// eventSink records one audit event outside the caller's transaction.
// Subprocess step events are informational; a failed append aborts the
// attempt like any other step failure.
type eventSink func(ctx context.Context, eventType string, payload map[string]any) error

// shippingSubprocess is one attempt at the two-step shipping unit:
// prepare the package, then dispatch the carrier. Both steps must complete
// in order; the first failure aborts the run. The subprocess performs no
// internal retries and carries no state between instances; the parent
// creates a fresh one per attempt.
type shippingSubprocess struct {
	provider    ports.ShippingProvider
	stepTimeout time.Duration
	record      eventSink
}

func newShippingSubprocess(provider ports.ShippingProvider, stepTimeout time.Duration, record eventSink) *shippingSubprocess {
	return &shippingSubprocess{
		provider:    provider,
		stepTimeout: stepTimeout,
		record:      record,
	}
}

// Run executes the two steps against the order and reports the outcome.
func (s *shippingSubprocess) Run(ctx context.Context, ord *order.Order) Outcome {
	if err := s.step(ctx, func(stepCtx context.Context) error {
		return s.provider.PreparePackage(stepCtx, ord)
	}); err != nil {
		return TransientFailure("prepare_package: " + err.Error())
	}
	if err := s.record(ctx, process.EventPackagePrepared, map[string]any{"order_id": ord.ID().String()}); err != nil {
		return TransientFailure("prepare_package: " + err.Error())
	}

	if err := s.step(ctx, func(stepCtx context.Context) error {
		return s.provider.DispatchCarrier(stepCtx, ord)
	}); err != nil {
		return TransientFailure("dispatch_carrier: " + err.Error())
	}
	if err := s.record(ctx, process.EventCarrierDispatched, map[string]any{"order_id": ord.ID().String()}); err != nil {
		return TransientFailure("dispatch_carrier: " + err.Error())
	}

	return Success()
}

func (s *shippingSubprocess) step(ctx context.Context, unit func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return unit(stepCtx)
}
