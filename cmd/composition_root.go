package cmd

import (
	"log/slog"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/provider"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/workflow"
	"fulfillment/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot wires the application graph: the GORM connection, the
// process engine with its simulated providers, and the command and query
// handlers the HTTP server needs.
type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	engine     *workflow.Engine
	logger     *slog.Logger
}

// NewCompositionRoot builds the full object graph from the configuration
// and an open database connection.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) *CompositionRoot {
	uowFactory := postgres.NewGormUnitOfWorkFactory(gormDB)

	paymentProvider := provider.NewSimulatedPaymentProvider(
		config.PaymentFailureRate, config.ProviderLatency, logger)
	shippingProvider := provider.NewSimulatedShippingProvider(
		config.ShippingFailureRate, config.ProviderLatency, logger)

	engineConfig := workflow.DefaultConfig()
	engineConfig.ApprovalTimeout = config.ApprovalTimeout
	engineConfig.ChargeTimeout = config.ChargeTimeout
	engineConfig.ShippingAttempts = config.ShippingMaxAttempt
	engineConfig.ShippingRetryDelay = config.ShippingRetryDelay

	engine := workflow.NewEngine(uowFactory, paymentProvider, shippingProvider, engineConfig, logger)

	return &CompositionRoot{
		gormDB:     gormDB,
		uowFactory: uowFactory,
		engine:     engine,
		logger:     logger,
	}
}

// Engine returns the process engine.
func (c *CompositionRoot) Engine() *workflow.Engine {
	return c.engine
}

// CreateJobManager builds the background job manager.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.engine, c.logger)
}

// CreateHTTPServer builds the HTTP server with all handlers wired.
func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		commands.NewStartOrderCommandHandler(c.engine),
		commands.NewSignalOrderCommandHandler(c.engine),
		queries.NewGetOrderStatusQueryHandler(c.gormDB),
		queries.NewGetOrderEventsQueryHandler(c.gormDB),
		queries.NewWaitOrderResultQueryHandler(c.engine),
	)
}
