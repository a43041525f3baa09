package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/deppfellow/userstore/internal/config"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

const newRelicShutdownTimeout = 10 * time.Second

// LoggerService owns the optional New Relic application. A service without
// an application is valid and means APM is off.
type LoggerService struct {
	nrApp    *newrelic.Application
	shutdown sync.Once
}

// NewLoggerService starts the New Relic agent when a license key is set.
// Extra options are applied last.
func NewLoggerService(cfg config.ObservabilityConfig, env string, opts ...newrelic.ConfigOption) (*LoggerService, error) {
	service := &LoggerService{}
	if !cfg.NewRelic.Enabled() {
		return service, nil
	}

	configOptions := []newrelic.ConfigOption{
		newrelic.ConfigAppName(cfg.ServiceName),
		newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(cfg.NewRelic.AppLogForwardingEnabled),
		newrelic.ConfigDistributedTracerEnabled(cfg.NewRelic.DistributedTracingEnabled),
		func(c *newrelic.Config) {
			c.Labels = map[string]string{"environment": env}
		},
	}
	if cfg.NewRelic.DebugLogging {
		configOptions = append(configOptions, newrelic.ConfigDebugLogger(os.Stdout))
	}
	configOptions = append(configOptions, opts...)

	app, err := newrelic.NewApplication(configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize New Relic: %w", err)
	}

	service.nrApp = app
	return service, nil
}

// GetApplication returns nil when New Relic is off.
func (ls *LoggerService) GetApplication() *newrelic.Application {
	if ls == nil {
		return nil
	}
	return ls.nrApp
}

// Shutdown flushes pending New Relic data. Only the first call does
// anything.
func (ls *LoggerService) Shutdown() {
	app := ls.GetApplication()
	if app == nil {
		return
	}
	ls.shutdown.Do(func() {
		app.Shutdown(newRelicShutdownTimeout)
	})
}

// WithTraceContext adds the transaction's trace.id and span.id so log lines
// can be joined with their trace.
func WithTraceContext(logger zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return logger
	}

	metadata := txn.GetTraceMetadata()
	return logger.With().
		Str("trace.id", metadata.TraceID).
		Str("span.id", metadata.SpanID).
		Logger()
}
