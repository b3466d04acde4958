package workflow_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/domain/model/process"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// memStore is an in-memory stand-in for the postgres adapters. Aggregates
// are stored as detached copies, so a runner's live aggregate never aliases
// the "persisted" one, mirroring row semantics.
type memStore struct {
	mu        sync.Mutex
	orders    map[kernel.UUID]*order.Order
	instances map[kernel.UUID]*process.Instance
	payments  map[string]*payment.Payment
	events    []process.Event
}

func newMemStore() *memStore {
	return &memStore{
		orders:    make(map[kernel.UUID]*order.Order),
		instances: make(map[kernel.UUID]*process.Instance),
		payments:  make(map[string]*payment.Payment),
	}
}

func (s *memStore) Create() ports.UnitOfWork {
	return &memUoW{store: s}
}

func (s *memStore) eventTypes(orderID kernel.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		if e.OrderID().IsEqual(orderID) {
			out = append(out, e.Type())
		}
	}
	return out
}

func (s *memStore) countEvents(orderID kernel.UUID, eventType string) int {
	n := 0
	for _, t := range s.eventTypes(orderID) {
		if t == eventType {
			n++
		}
	}
	return n
}

func copyOrder(o *order.Order) *order.Order {
	var addr *order.Address
	if a := o.Address(); a != nil {
		c := *a
		addr = &c
	}
	copied, err := order.RestoreOrder(
		o.ID(), o.CustomerRef(), o.Total(), o.Priority(), addr,
		o.Status(), o.Approved(), o.Cancelled(), o.LastError(),
		o.CreatedAt(), o.UpdatedAt(),
	)
	if err != nil {
		panic(fmt.Sprintf("copyOrder: %v", err))
	}
	return copied
}

func copyInstance(i *process.Instance) *process.Instance {
	var deadline *time.Time
	if d := i.SuspendDeadline(); d != nil {
		c := *d
		deadline = &c
	}
	copied, err := process.RestoreInstance(
		i.OrderID(), i.Step(), i.Attempt(), deadline,
		i.IdempotencyKey(), i.PendingSignals(), i.CreatedAt(), i.UpdatedAt(),
	)
	if err != nil {
		panic(fmt.Sprintf("copyInstance: %v", err))
	}
	return copied
}

func copyPayment(p *payment.Payment) *payment.Payment {
	copied, err := payment.RestorePayment(
		p.IdempotencyKey(), p.OrderID(), p.Status(), p.Amount(),
		p.CreatedAt(), p.UpdatedAt(),
	)
	if err != nil {
		panic(fmt.Sprintf("copyPayment: %v", err))
	}
	return copied
}

// memUoW ignores transaction boundaries: every repository call writes
// through. Good enough for engine scenarios, which only exercise committed
// paths.
type memUoW struct {
	store *memStore
}

func (u *memUoW) Begin(context.Context) error    { return nil }
func (u *memUoW) Commit(context.Context) error   { return nil }
func (u *memUoW) Rollback(context.Context) error { return nil }

func (u *memUoW) OrderRepository() ports.OrderRepository       { return &memOrderRepo{u.store} }
func (u *memUoW) PaymentRepository() ports.PaymentRepository   { return &memPaymentRepo{u.store} }
func (u *memUoW) EventRepository() ports.EventRepository       { return &memEventRepo{u.store} }
func (u *memUoW) InstanceRepository() ports.InstanceRepository { return &memInstanceRepo{u.store} }

type memOrderRepo struct{ store *memStore }

func (r *memOrderRepo) Add(_ context.Context, aggregate *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.orders[aggregate.ID()]; exists {
		return errs.NewObjectAlreadyExistsError("order", aggregate.ID().String())
	}
	r.store.orders[aggregate.ID()] = copyOrder(aggregate)
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, aggregate *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.orders[aggregate.ID()]; !exists {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	r.store.orders[aggregate.ID()] = copyOrder(aggregate)
	return nil
}

func (r *memOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, exists := r.store.orders[id]
	if !exists {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return copyOrder(stored), nil
}

type memPaymentRepo struct{ store *memStore }

func (r *memPaymentRepo) Add(_ context.Context, aggregate *payment.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.payments[aggregate.IdempotencyKey()]; exists {
		return fmt.Errorf("%w: %s", ports.ErrDuplicateIdempotencyKey, aggregate.IdempotencyKey())
	}
	r.store.payments[aggregate.IdempotencyKey()] = copyPayment(aggregate)
	return nil
}

func (r *memPaymentRepo) Update(_ context.Context, aggregate *payment.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.payments[aggregate.IdempotencyKey()]; !exists {
		return errs.NewObjectNotFoundError("payment", aggregate.IdempotencyKey())
	}
	r.store.payments[aggregate.IdempotencyKey()] = copyPayment(aggregate)
	return nil
}

func (r *memPaymentRepo) GetByIdempotencyKey(_ context.Context, key string) (*payment.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, exists := r.store.payments[key]
	if !exists {
		return nil, errs.NewObjectNotFoundError("payment", key)
	}
	return copyPayment(stored), nil
}

type memEventRepo struct{ store *memStore }

func (r *memEventRepo) Append(_ context.Context, event process.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events = append(r.store.events, event)
	return nil
}

func (r *memEventRepo) ListByOrder(_ context.Context, orderID kernel.UUID) ([]process.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []process.Event
	for _, e := range r.store.events {
		if e.OrderID().IsEqual(orderID) {
			out = append(out, e)
		}
	}
	return out, nil
}

type memInstanceRepo struct{ store *memStore }

func (r *memInstanceRepo) Add(_ context.Context, aggregate *process.Instance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.instances[aggregate.OrderID()]; exists {
		return errs.NewObjectAlreadyExistsError("process instance", aggregate.OrderID().String())
	}
	r.store.instances[aggregate.OrderID()] = copyInstance(aggregate)
	return nil
}

func (r *memInstanceRepo) Update(_ context.Context, aggregate *process.Instance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.instances[aggregate.OrderID()]; !exists {
		return errs.NewObjectNotFoundError("process instance", aggregate.OrderID().String())
	}
	r.store.instances[aggregate.OrderID()] = copyInstance(aggregate)
	return nil
}

func (r *memInstanceRepo) Get(_ context.Context, orderID kernel.UUID) (*process.Instance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, exists := r.store.instances[orderID]
	if !exists {
		return nil, errs.NewObjectNotFoundError("process instance", orderID.String())
	}
	return copyInstance(stored), nil
}

func (r *memInstanceRepo) GetAllActive(_ context.Context) ([]*process.Instance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*process.Instance
	for _, inst := range r.store.instances {
		if !inst.Step().IsTerminal() {
			out = append(out, copyInstance(inst))
		}
	}
	return out, nil
}

// stubPayment fails the first failures charge calls, then succeeds.
type stubPayment struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (p *stubPayment) Charge(_ context.Context, _ string, orderID kernel.UUID, _ float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return fmt.Errorf("gateway unavailable for order %s", orderID.String())
	}
	return nil
}

func (p *stubPayment) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// stubShipping fails the first prepareFailures PreparePackage calls, then
// succeeds. Call times are recorded for retry-spacing assertions.
type stubShipping struct {
	mu              sync.Mutex
	prepareFailures int
	prepareCalls    []time.Time
	dispatchCalls   int
}

func (s *stubShipping) PreparePackage(_ context.Context, ord *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepareCalls = append(s.prepareCalls, time.Now())
	if len(s.prepareCalls) <= s.prepareFailures {
		return fmt.Errorf("warehouse busy for order %s", ord.ID().String())
	}
	return nil
}

func (s *stubShipping) DispatchCarrier(_ context.Context, _ *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchCalls++
	return nil
}

func (s *stubShipping) prepareTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.prepareCalls...)
}

// gatedShipping blocks inside PreparePackage until released, so a test can
// hold an order mid-shipping while it sends commands.
type gatedShipping struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedShipping() *gatedShipping {
	return &gatedShipping{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gatedShipping) PreparePackage(ctx context.Context, _ *order.Order) error {
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *gatedShipping) DispatchCarrier(_ context.Context, _ *order.Order) error {
	return nil
}
