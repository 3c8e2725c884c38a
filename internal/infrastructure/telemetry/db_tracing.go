package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/hospital-erp/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // Include query variables in spans (dev only)
	SlowQueryThresh time.Duration // Default: 200ms
	DBSystem        string        // Default: "postgresql"
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingConfigFrom maps the application telemetry settings.
func DBTracingConfigFrom(cfg config.TelemetryConfig, appEnv string) DBTracingConfig {
	c := DefaultDBTracingConfig()
	c.Enabled = cfg.Enabled && cfg.DBTraceEnabled
	c.LogFullSQL = appEnv == "development"
	if cfg.DBSlowQueryThresh > 0 {
		c.SlowQueryThresh = cfg.DBSlowQueryThresh
	}
	return c
}

// DBTracingPlugin wraps otelgorm with slow query detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// Register installs otelgorm and the slow query callbacks on db.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	before := []struct {
		name string
		reg  func(string, func(*gorm.DB)) error
	}{
		{"otel_timing:before_create", cb.Create().Before("gorm:create").Register},
		{"otel_timing:before_query", cb.Query().Before("gorm:query").Register},
		{"otel_timing:before_update", cb.Update().Before("gorm:update").Register},
		{"otel_timing:before_delete", cb.Delete().Before("gorm:delete").Register},
		{"otel_timing:before_row", cb.Row().Before("gorm:row").Register},
		{"otel_timing:before_raw", cb.Raw().Before("gorm:raw").Register},
	}
	for _, b := range before {
		if err := b.reg(b.name, markQueryStart); err != nil {
			return err
		}
	}

	after := []struct {
		name string
		reg  func(string, func(*gorm.DB)) error
	}{
		{"otel_slow_query:create", cb.Create().After("gorm:create").Register},
		{"otel_slow_query:query", cb.Query().After("gorm:query").Register},
		{"otel_slow_query:update", cb.Update().After("gorm:update").Register},
		{"otel_slow_query:delete", cb.Delete().After("gorm:delete").Register},
		{"otel_slow_query:row", cb.Row().After("gorm:row").Register},
		{"otel_slow_query:raw", cb.Raw().After("gorm:raw").Register},
	}
	for _, a := range after {
		if err := a.reg(a.name, p.slowQueryCallback); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (p *DBTracingPlugin) slowQueryCallback(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(startTime); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
