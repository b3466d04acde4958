package postgres_test

import (
	"context"
	"testing"
	"time"

	postgresadapter "fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/eventrepo"
	"fulfillment/internal/adapters/out/postgres/instancerepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/paymentrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/process"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite provides integration testing for the
// GORM-based Unit of Work implementation with a real PostgreSQL database.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	err = db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&instancerepo.InstanceDTO{},
		&paymentrepo.PaymentDTO{},
		&eventrepo.EventDTO{},
	)
	suite.Require().NoError(err)

	suite.factory = postgresadapter.NewGormUnitOfWorkFactory(db)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE orders, process_instances, payments, order_events").Error
	suite.Require().NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestFactory_CreatesIsolatedInstances() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2, "Factory should create separate instances")
	suite.NotNil(uow1.OrderRepository())
	suite.NotNil(uow1.InstanceRepository())
	suite.NotNil(uow2.PaymentRepository())
	suite.NotNil(uow2.EventRepository())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	err := uow.Begin(ctx)
	suite.Require().NoError(err)

	// Repeated begin on an active transaction is safe.
	err = uow.Begin(ctx)
	suite.Require().NoError(err)

	err = uow.Commit(ctx)
	suite.Require().NoError(err)

	err = uow.Begin(ctx)
	suite.Require().NoError(err)

	err = uow.Rollback(ctx)
	suite.Require().NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTransactionErrors() {
	ctx := context.Background()
	uow := suite.factory.Create()

	err := uow.Commit(ctx)
	suite.Require().Error(err, "commit without an active transaction must fail")

	err = uow.Rollback(ctx)
	suite.Require().Error(err, "rollback without an active transaction must fail")
}

// TestMultiRepositoryTransaction verifies the order, instance and event
// writes of one process step land atomically.
func (suite *UnitOfWorkIntegrationTestSuite) TestMultiRepositoryTransaction() {
	ctx := context.Background()
	uow := suite.factory.Create()

	ord, inst := suite.newOrderWithInstance()
	event, err := process.NewEvent(ord.ID(), process.EventOrderReceived, map[string]any{
		"customer_ref": ord.CustomerRef(),
	})
	suite.Require().NoError(err)

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, ord))
	suite.Require().NoError(uow.InstanceRepository().Add(ctx, inst))
	suite.Require().NoError(uow.EventRepository().Append(ctx, event))
	suite.Require().NoError(uow.Commit(ctx))

	readUow := suite.factory.Create()
	storedOrder, err := readUow.OrderRepository().Get(ctx, ord.ID())
	suite.Require().NoError(err)
	suite.Equal(ord.ID(), storedOrder.ID())

	storedInstance, err := readUow.InstanceRepository().Get(ctx, ord.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Receiving, storedInstance.Step())

	events, err := readUow.EventRepository().ListByOrder(ctx, ord.ID())
	suite.Require().NoError(err)
	suite.Require().Len(events, 1)
	suite.Equal(process.EventOrderReceived, events[0].Type())
}

// TestTransactionRollback verifies nothing of a rolled-back step is visible.
func (suite *UnitOfWorkIntegrationTestSuite) TestTransactionRollback() {
	ctx := context.Background()
	uow := suite.factory.Create()

	ord, inst := suite.newOrderWithInstance()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, ord))
	suite.Require().NoError(uow.InstanceRepository().Add(ctx, inst))
	suite.Require().NoError(uow.Rollback(ctx))

	readUow := suite.factory.Create()
	_, err := readUow.OrderRepository().Get(ctx, ord.ID())
	suite.Require().Error(err)

	_, err = readUow.InstanceRepository().Get(ctx, ord.ID())
	suite.Require().Error(err)
}

// TestInstancePendingSignalsRoundTrip verifies the durable signal FIFO
// survives storage, order preserved.
func (suite *UnitOfWorkIntegrationTestSuite) TestInstancePendingSignalsRoundTrip() {
	ctx := context.Background()

	ord, inst := suite.newOrderWithInstance()

	addr, err := order.NewAddress("1 Main St", "Springfield", "IL", "62701", "")
	suite.Require().NoError(err)
	updateAddress, err := process.NewSignal(process.SignalUpdateAddress, addr)
	suite.Require().NoError(err)
	approve, err := process.NewSignal(process.SignalApprove, order.Address{})
	suite.Require().NoError(err)

	inst.EnqueueSignal(updateAddress)
	inst.EnqueueSignal(approve)
	deadline := time.Now().UTC().Add(30 * time.Second).Truncate(time.Millisecond)
	inst.Suspend(deadline)

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, ord))
	suite.Require().NoError(uow.InstanceRepository().Add(ctx, inst))
	suite.Require().NoError(uow.Commit(ctx))

	stored, err := suite.factory.Create().InstanceRepository().Get(ctx, ord.ID())
	suite.Require().NoError(err)

	pending := stored.PendingSignals()
	suite.Require().Len(pending, 2)
	suite.Equal(process.SignalUpdateAddress, pending[0].Kind)
	suite.Equal("1 Main St", pending[0].Address.Street)
	suite.Equal(process.SignalApprove, pending[1].Kind)

	suite.Require().NotNil(stored.SuspendDeadline())
	suite.WithinDuration(deadline, *stored.SuspendDeadline(), time.Millisecond)
}

// TestGetAllActive returns only instances whose step is not terminal.
func (suite *UnitOfWorkIntegrationTestSuite) TestGetAllActive() {
	ctx := context.Background()

	activeOrder, activeInstance := suite.newOrderWithInstance()
	doneOrder, doneInstance := suite.newOrderWithInstance()
	suite.Require().NoError(doneInstance.SetStep(order.Completed))

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, activeOrder))
	suite.Require().NoError(uow.InstanceRepository().Add(ctx, activeInstance))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, doneOrder))
	suite.Require().NoError(uow.InstanceRepository().Add(ctx, doneInstance))
	suite.Require().NoError(uow.Commit(ctx))

	active, err := suite.factory.Create().InstanceRepository().GetAllActive(ctx)
	suite.Require().NoError(err)
	suite.Require().Len(active, 1)
	suite.Equal(activeOrder.ID(), active[0].OrderID())
}

// TestEventLogOrdering verifies ListByOrder returns events oldest first.
func (suite *UnitOfWorkIntegrationTestSuite) TestEventLogOrdering() {
	ctx := context.Background()
	orderID := kernel.NewUUID()

	sequence := []string{
		process.EventOrderReceived,
		process.EventOrderValidated,
		process.EventApprovalRequested,
	}
	for _, eventType := range sequence {
		event, err := process.NewEvent(orderID, eventType, nil)
		suite.Require().NoError(err)

		uow := suite.factory.Create()
		suite.Require().NoError(uow.Begin(ctx))
		suite.Require().NoError(uow.EventRepository().Append(ctx, event))
		suite.Require().NoError(uow.Commit(ctx))
	}

	events, err := suite.factory.Create().EventRepository().ListByOrder(ctx, orderID)
	suite.Require().NoError(err)
	suite.Require().Len(events, 3)
	for i, eventType := range sequence {
		suite.Equal(eventType, events[i].Type())
	}
}

// TestWithoutTransaction verifies reads work on a fresh unit of work
// without an explicit Begin.
func (suite *UnitOfWorkIntegrationTestSuite) TestWithoutTransaction() {
	ctx := context.Background()

	ord, inst := suite.newOrderWithInstance()
	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, ord))
	suite.Require().NoError(uow.InstanceRepository().Add(ctx, inst))
	suite.Require().NoError(uow.Commit(ctx))

	stored, err := suite.factory.Create().OrderRepository().Get(ctx, ord.ID())
	suite.Require().NoError(err)
	suite.Equal(ord.ID(), stored.ID())
}

// newOrderWithInstance creates a fresh order and its process instance.
func (suite *UnitOfWorkIntegrationTestSuite) newOrderWithInstance() (*order.Order, *process.Instance) {
	id := kernel.NewUUID()
	ord, err := order.NewOrder(id, "customer-42", 99.95, order.PriorityNormal)
	suite.Require().NoError(err)
	inst, err := process.NewInstance(id, "payment-"+id.String())
	suite.Require().NoError(err)
	return ord, inst
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
