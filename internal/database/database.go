// Package database opens the postgres connection shared by the server and keeperctl.
package database

import (
	"context"
	"fmt"
	"log/slog"

	sloggorm "github.com/orandin/slog-gorm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"

	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/logger"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/internal/database")

func gormLogger(cfg *config.LoggingConfig) gormlogger.Interface {
	handler := slog.New(logger.Handler).Handler()
	level := slog.Level(cfg.Gorm.Level)

	if cfg.Gorm.TraceQueries {
		return sloggorm.New(
			sloggorm.WithHandler(handler),
			sloggorm.WithTraceAll(),
			sloggorm.SetLogLevel(sloggorm.DefaultLogType, level),
		)
	}

	return sloggorm.New(
		sloggorm.WithHandler(handler),
		sloggorm.SetLogLevel(sloggorm.DefaultLogType, level),
	)
}

// Connects with the configured pool limits and gorm spans enabled
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	_, span := tracer.Start(ctx, "Open")
	defer span.End()

	db, err := gorm.Open(
		postgres.Open(cfg.PostgresDSN()),
		&gorm.Config{Logger: gormLogger(cfg.Logging), TranslateError: true},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire underlying database connection")
		return nil, fmt.Errorf("failed to acquire underlying database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(cfg.Postgres.ConnectionTTL)

	span.AddEvent("initialized database connection")

	err = db.Use(gormtracing.NewPlugin())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add otel plugin to gorm")
		return nil, fmt.Errorf("failed to add otel plugin to gorm: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "opened database")
	return db, nil
}

// Closes the pool behind `db`
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
