// Package database contains the logic for establishing
// connections to the PostgreSQL database.
//
// It handles:
//   - parsing the DATABASE_URL into a pgxpool config
//   - applying pool sizing from config
//   - wiring query tracing/logging (New Relic nrpgx5, pgx tracelog + pgx-zerolog)
//   - warning about slow queries
//   - running the embedded migrations (see migrator.go)
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/userstore/internal/config"
	loggerConfig "github.com/deppfellow/userstore/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
)

// Database wraps the pgx connection pool and a logger.
//
// Pool is the shared connection pool; repositories take it as their DBTX.
// log is used for lifecycle logs (connect/close).
type Database struct {
	Pool *pgxpool.Pool
	log  *zerolog.Logger
}

// multiTracer allows chaining multiple tracers.
//
// pgx supports a single Tracer in ConnConfig. This adapter runs the New
// Relic tracer, the slow query tracer and tracelog.TraceLog side by side.
type multiTracer struct {
	tracers []pgx.QueryTracer
}

// TraceQueryStart threads the context through every tracer in order so
// each can stash its own values for TraceQueryEnd.
func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, t := range mt.tracers {
		ctx = t.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, t := range mt.tracers {
		t.TraceQueryEnd(ctx, conn, data)
	}
}

// DatabasePingTimeout is how long New waits for a ping before
// considering the database unreachable.
const DatabasePingTimeout = 10 * time.Second

// PoolConfig parses the configured URL and applies pool sizing and tracers.
// It does not connect. loggerService may be nil.
func PoolConfig(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*pgxpool.Config, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	if cfg.Database.MaxConns > 0 {
		pgxPoolConfig.MaxConns = cfg.Database.MaxConns
	}
	pgxPoolConfig.MinConns = cfg.Database.MinConns
	if cfg.Database.ConnMaxLifetime > 0 {
		pgxPoolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		pgxPoolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	}

	var tracers []pgx.QueryTracer

	// Statements become datastore segments of the request's transaction.
	if loggerService.GetApplication() != nil {
		tracers = append(tracers, nrpgx5.NewTracer())
	}

	if slow := loggerConfig.NewSlowQueryTracer(logger, cfg.Logging.SlowQueryThreshold); slow != nil {
		tracers = append(tracers, slow)
	}

	// Every statement gets logged in local env. Far too noisy anywhere else.
	if cfg.IsLocal() {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerConfig.NewPgxLogger(globalLevel)

		tracers = append(tracers, &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: loggerConfig.PgxTraceLogLevel(globalLevel),
		})
	}

	switch len(tracers) {
	case 0:
	case 1:
		pgxPoolConfig.ConnConfig.Tracer = tracers[0]
	default:
		pgxPoolConfig.ConnConfig.Tracer = &multiTracer{tracers: tracers}
	}

	return pgxPoolConfig, nil
}

// New creates a PostgreSQL connection pool with instrumentation, pings it
// and returns the wrapper.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	pgxPoolConfig, err := PoolConfig(cfg, logger, loggerService)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	database := &Database{
		Pool: pool,
		log:  logger,
	}

	// Fail fast at startup if the database is down.
	pingCtx, cancel := context.WithTimeout(ctx, DatabasePingTimeout)
	defer cancel()
	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", pgxPoolConfig.ConnConfig.Host).
		Str("database", pgxPoolConfig.ConnConfig.Database).
		Msg("connected to the database")

	return database, nil
}

// Close closes the database connection pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")
	db.Pool.Close()
	return nil
}
