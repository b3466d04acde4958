package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"fulfillment/cmd"
	"fulfillment/internal/adapters/out/postgres/eventrepo"
	"fulfillment/internal/adapters/out/postgres/instancerepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/paymentrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	_ "github.com/lib/pq"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	config := cmd.ConfigFromEnv()

	gormDB, err := openDatabase(config)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}

	root := cmd.NewCompositionRoot(config, gormDB, logger)

	// Resume every process interrupted by the previous shutdown before
	// accepting traffic.
	if err := root.Engine().Reconcile(context.Background()); err != nil {
		logger.Error("Failed to resume interrupted processes", "error", err)
		os.Exit(1)
	}

	jobManager := root.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		logger.Error("Failed to start background jobs", "error", err)
		os.Exit(1)
	}
	defer jobManager.StopAll()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.WARN)
	e.Use(middleware.Recover())
	root.CreateHTTPServer().RegisterRoutes(e)

	e.Logger.Fatal(e.Start(fmt.Sprintf("0.0.0.0:%s", config.HTTPPort)))
}

func openDatabase(config cmd.Config) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := gormDB.AutoMigrate(
		&orderrepo.OrderDTO{},
		&instancerepo.InstanceDTO{},
		&paymentrepo.PaymentDTO{},
		&eventrepo.EventDTO{},
	); err != nil {
		return nil, err
	}

	return gormDB, nil
}
