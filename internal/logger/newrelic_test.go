package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/deppfellow/userstore/internal/config"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observability(key string) config.ObservabilityConfig {
	return config.ObservabilityConfig{
		ServiceName: "userstore",
		NewRelic: config.NewRelicConfig{
			LicenseKey:                key,
			AppLogForwardingEnabled:   true,
			DistributedTracingEnabled: true,
		},
	}
}

func TestNewLoggerService_Disabled(t *testing.T) {
	service, err := NewLoggerService(observability(""), "test")
	require.NoError(t, err)
	require.NotNil(t, service)
	assert.Nil(t, service.GetApplication())

	// Both are safe without an application.
	service.Shutdown()
	var none *LoggerService
	assert.Nil(t, none.GetApplication())
	none.Shutdown()
}

func TestNewLoggerService_Enabled(t *testing.T) {
	// The agent is created but never contacts the collector.
	service, err := NewLoggerService(observability(strings.Repeat("a", 40)), "test", newrelic.ConfigEnabled(false))
	require.NoError(t, err)
	assert.NotNil(t, service.GetApplication())

	service.Shutdown()
	service.Shutdown()
}

func TestNewLoggerService_BadLicense(t *testing.T) {
	_, err := NewLoggerService(observability("too-short"), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize New Relic")
}

func TestWithTraceContext_NoTransaction(t *testing.T) {
	var buf bytes.Buffer
	log := WithTraceContext(zerolog.New(&buf), nil)

	log.Info().Msg("plain")
	assert.NotContains(t, buf.String(), "trace.id")
}

func TestNewWithService_NoApplication(t *testing.T) {
	log := NewWithService(config.LoggingConfig{Level: "debug", Format: "json"}, "test", nil)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}
