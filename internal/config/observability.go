package config

// NewRelicLicenseKeyEnv is New Relic's own variable. Like DATABASE_URL it
// is read without the USERSTORE_ prefix.
const NewRelicLicenseKeyEnv = "NEW_RELIC_LICENSE_KEY"

// ObservabilityConfig names the service towards APM and holds the New Relic
// agent settings.
type ObservabilityConfig struct {
	ServiceName string `koanf:"service_name" validate:"required"`

	// NewRelic is off unless a license key is set.
	NewRelic NewRelicConfig `koanf:"new_relic"`
}

// NewRelicConfig holds configuration for New Relic APM and tracing.
type NewRelicConfig struct {
	LicenseKey                string `koanf:"license_key"`
	AppLogForwardingEnabled   bool   `koanf:"app_log_forwarding_enabled"`
	DistributedTracingEnabled bool   `koanf:"distributed_tracing_enabled"`
	DebugLogging              bool   `koanf:"debug_logging"`
}

// Enabled reports whether the agent should be started.
func (c NewRelicConfig) Enabled() bool {
	return c.LicenseKey != ""
}
