// Package logger configures the application's logging and monitoring.
//
// It uses *ZeroLog* for structured application logs and adapts the same
// logger for the pgx driver, so SQL tracing and slow query warnings end up
// in the same stream as everything else. When a New Relic license key is
// configured, logs are also forwarded to *New Relic*.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/deppfellow/userstore/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// New builds the main application logger from config.
//
// JSON is the default output. "console" switches to zerolog's human
// readable writer, which is what you want when running locally.
func New(cfg config.LoggingConfig, env string) zerolog.Logger {
	return NewWithService(cfg, env, nil)
}

// NewWithService is New plus log forwarding through the service's New
// Relic application. Console output is never forwarded.
func NewWithService(cfg config.LoggingConfig, env string, service *LoggerService) zerolog.Logger {
	// Lets .Stack() print the trace of errors wrapped with pkg/errors.
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	var out io.Writer = os.Stdout
	if app := service.GetApplication(); app != nil && cfg.Format != "console" {
		out = zerologWriter.New(os.Stdout, app)
	}
	return newWithWriter(cfg, env, out)
}

func newWithWriter(cfg config.LoggingConfig, env string, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var w io.Writer = out
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "userstore").
		Str("environment", env).
		Logger()
}

// NewPgxLogger returns the logger handed to pgx-zerolog. It writes to
// stderr in console format because the SQL lines are meant for humans.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Str("component", "database").
		Logger()
}

// PgxTraceLogLevel maps a zerolog level onto the pgx tracelog scale.
func PgxTraceLogLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return tracelog.LogLevelError
	case zerolog.Disabled:
		return tracelog.LogLevelNone
	default:
		return tracelog.LogLevelInfo
	}
}

type slowQueryKey struct{}

type slowQueryStart struct {
	sql   string
	start time.Time
}

// SlowQueryTracer is a pgx.QueryTracer that warns about queries taking
// longer than Threshold.
type SlowQueryTracer struct {
	Logger    *zerolog.Logger
	Threshold time.Duration

	now func() time.Time
}

// NewSlowQueryTracer returns nil when threshold is zero so callers can skip
// it entirely.
func NewSlowQueryTracer(logger *zerolog.Logger, threshold time.Duration) *SlowQueryTracer {
	if threshold <= 0 {
		return nil
	}
	return &SlowQueryTracer{Logger: logger, Threshold: threshold, now: time.Now}
}

func (t *SlowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, slowQueryKey{}, slowQueryStart{sql: data.SQL, start: t.now()})
}

func (t *SlowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	started, ok := ctx.Value(slowQueryKey{}).(slowQueryStart)
	if !ok {
		return
	}

	elapsed := t.now().Sub(started.start)
	if elapsed < t.Threshold {
		return
	}

	t.Logger.Warn().
		Str("sql", started.sql).
		Dur("duration", elapsed).
		Dur("threshold", t.Threshold).
		Err(data.Err).
		Msg("slow query")
}
