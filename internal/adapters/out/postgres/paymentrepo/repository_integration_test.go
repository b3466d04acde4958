package paymentrepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/paymentrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

// PaymentRepositoryIntegrationTestSuite provides integration tests for
// PaymentRepository, in particular the unique-key behavior the ledger's
// idempotency guarantee rests on.
type PaymentRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *paymentrepo.GormPaymentRepository
	tracker    *MockAggregateTracker
}

func (suite *PaymentRepositoryIntegrationTestSuite) SetupSuite() {
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

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&paymentrepo.PaymentDTO{}))
}

func (suite *PaymentRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE payments").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.repository = paymentrepo.NewGormPaymentRepository(suite.db, suite.tracker)
}

func (suite *PaymentRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *PaymentRepositoryIntegrationTestSuite) TestAdd_ValidPayment_Success() {
	ctx := context.Background()

	record := suite.createTestPayment("key-1")
	suite.tracker.On("TrackAggregate", record.OrderID(), record).Once()

	err := suite.repository.Add(ctx, record)
	suite.Require().NoError(err)

	stored, err := suite.repository.GetByIdempotencyKey(ctx, "key-1")
	suite.Require().NoError(err)
	suite.Equal(payment.StatusPending, stored.Status())
	suite.Equal(record.OrderID(), stored.OrderID())
	suite.Equal(42.50, stored.Amount())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *PaymentRepositoryIntegrationTestSuite) TestAdd_DuplicateKey_ReturnsDuplicateError() {
	ctx := context.Background()

	first := suite.createTestPayment("key-dup")
	suite.tracker.On("TrackAggregate", first.OrderID(), first).Once()
	suite.Require().NoError(suite.repository.Add(ctx, first))

	second := suite.createTestPayment("key-dup")
	err := suite.repository.Add(ctx, second)
	suite.Require().Error(err)
	suite.Require().ErrorIs(err, ports.ErrDuplicateIdempotencyKey)

	suite.tracker.AssertExpectations(suite.T())
}

// TestAdd_ConcurrentInserts_ExactlyOneWins verifies the unique constraint
// closes the race between two attempts inserting under the same key.
func (suite *PaymentRepositoryIntegrationTestSuite) TestAdd_ConcurrentInserts_ExactlyOneWins() {
	ctx := context.Background()

	suite.tracker.On("TrackAggregate", mock.AnythingOfType("kernel.UUID"), mock.Anything).Maybe()

	const contenders = 4
	results := make(chan error, contenders)
	var start sync.WaitGroup
	start.Add(1)

	for range contenders {
		go func() {
			record := suite.createTestPayment("key-race")
			start.Wait()
			results <- suite.repository.Add(ctx, record)
		}()
	}
	start.Done()

	var succeeded, duplicated int
	for range contenders {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		default:
			suite.Require().ErrorIs(err, ports.ErrDuplicateIdempotencyKey)
			duplicated++
		}
	}

	suite.Equal(1, succeeded)
	suite.Equal(contenders-1, duplicated)

	var count int64
	suite.Require().NoError(suite.db.Model(&paymentrepo.PaymentDTO{}).Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *PaymentRepositoryIntegrationTestSuite) TestUpdate_PersistsSettlement() {
	ctx := context.Background()

	record := suite.createTestPayment("key-settle")
	suite.tracker.On("TrackAggregate", record.OrderID(), record).Times(2)
	suite.Require().NoError(suite.repository.Add(ctx, record))

	record.MarkCharged()
	suite.Require().NoError(suite.repository.Update(ctx, record))

	stored, err := suite.repository.GetByIdempotencyKey(ctx, "key-settle")
	suite.Require().NoError(err)
	suite.Equal(payment.StatusCharged, stored.Status())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *PaymentRepositoryIntegrationTestSuite) TestGetByIdempotencyKey_UnknownKey_ReturnsNotFoundError() {
	ctx := context.Background()

	stored, err := suite.repository.GetByIdempotencyKey(ctx, "no-such-key")
	suite.Nil(stored)
	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

// createTestPayment creates a pending payment record under the given key.
func (suite *PaymentRepositoryIntegrationTestSuite) createTestPayment(key string) *payment.Payment {
	record, err := payment.NewPayment(key, kernel.NewUUID(), 42.50)
	suite.Require().NoError(err)
	return record
}

func TestPaymentRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentRepositoryIntegrationTestSuite))
}
