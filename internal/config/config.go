// Package config loads this module's demo/bootstrap configuration from
// environment variables, following spec §6's rate-limit configuration
// shape plus the ambient server/logging/storage knobs every deployment
// needs.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Policy mirrors ratelimit.Policy as a JSON-decodable shape for env blobs.
type Policy struct {
	Name              string `json:"name"`
	RequestLimit      int    `json:"requestLimit"`
	WindowSizeSeconds int    `json:"windowSizeSeconds"`
}

// EndpointPolicy binds a Policy to a path prefix and HTTP methods.
type EndpointPolicy struct {
	PathPrefix string   `json:"pathPrefix"`
	Methods    []string `json:"methods"`
	Policy     Policy   `json:"policy"`
}

// StorageConfig configures the rate-limit store backend.
type StorageConfig struct {
	Kind                   string `json:"kind"` // "memory" | "distributed"
	ConnectionString       string `json:"connectionString"`
	KeyPrefix              string `json:"keyPrefix"`
	CleanupIntervalMinutes int    `json:"cleanupIntervalMinutes"`
}

// MonitorConfig configures the background monitor's tick intervals.
type MonitorConfig struct {
	IntervalMinutes        int     `json:"intervalMinutes"`
	CleanupIntervalMinutes int     `json:"cleanupIntervalMinutes"`
	AlertThreshold         float64 `json:"alertThreshold"`
}

// Config holds all configuration, loaded from environment variables.
type Config struct {
	// Server (ambient; the module itself exposes no HTTP business API,
	// only an optional /healthz and /metrics surface in cmd/wardend).
	Host string `env:"WARDEN_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"WARDEN_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Telemetry
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`

	// Redis (rate-limit distributed store)
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Postgres (audit sink persistence; optional — unset disables durable
	// audit persistence and falls back to MemorySink)
	DatabaseURL string `env:"DATABASE_URL"`

	// Rate limiting, spec §6 configuration surface
	RateLimitEnabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitKeyStrategy string `env:"RATE_LIMIT_KEY_STRATEGY" envDefault:"user"` // ip|user|user+endpoint|apiKey|combined

	DefaultPolicyJSON    string   `env:"RATE_LIMIT_DEFAULT_POLICY" envDefault:"{\"name\":\"default\",\"requestLimit\":100,\"windowSizeSeconds\":60}"`
	TenantPoliciesJSON   string   `env:"RATE_LIMIT_TENANT_POLICIES" envDefault:"{}"`
	EndpointPoliciesJSON string   `env:"RATE_LIMIT_ENDPOINT_POLICIES" envDefault:"[]"`
	ExcludePaths         []string `env:"RATE_LIMIT_EXCLUDE_PATHS" envSeparator:","`

	StorageKindRaw                 string `env:"RATE_LIMIT_STORAGE_KIND" envDefault:"memory"`
	StorageKeyPrefix               string `env:"RATE_LIMIT_STORAGE_KEY_PREFIX" envDefault:"acs:ratelimit:"`
	StorageCleanupIntervalMinutes  int    `env:"RATE_LIMIT_STORAGE_CLEANUP_INTERVAL_MINUTES" envDefault:"5"`

	MonitorIntervalMinutes        int     `env:"MONITOR_INTERVAL_MINUTES" envDefault:"1"`
	MonitorCleanupIntervalMinutes int     `env:"MONITOR_CLEANUP_INTERVAL_MINUTES" envDefault:"5"`
	MonitorAlertThreshold         float64 `env:"MONITOR_ALERT_THRESHOLD" envDefault:"0.9"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the address the demo's ambient HTTP surface should
// listen on.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultPolicy decodes the default rate-limit policy.
func (c *Config) DefaultPolicy() (Policy, error) {
	var p Policy
	if err := json.Unmarshal([]byte(c.DefaultPolicyJSON), &p); err != nil {
		return Policy{}, fmt.Errorf("decoding default policy: %w", err)
	}
	return p, nil
}

// TenantPolicies decodes the per-tenant policy overrides.
func (c *Config) TenantPolicies() (map[string]Policy, error) {
	policies := make(map[string]Policy)
	if err := json.Unmarshal([]byte(c.TenantPoliciesJSON), &policies); err != nil {
		return nil, fmt.Errorf("decoding tenant policies: %w", err)
	}
	return policies, nil
}

// EndpointPolicies decodes the ordered list of path-prefix policy overrides.
func (c *Config) EndpointPolicies() ([]EndpointPolicy, error) {
	var policies []EndpointPolicy
	if err := json.Unmarshal([]byte(c.EndpointPoliciesJSON), &policies); err != nil {
		return nil, fmt.Errorf("decoding endpoint policies: %w", err)
	}
	return policies, nil
}

// Storage assembles the StorageConfig from its constituent fields.
func (c *Config) Storage() StorageConfig {
	return StorageConfig{
		Kind:                   c.StorageKindRaw,
		ConnectionString:       c.RedisURL,
		KeyPrefix:              c.StorageKeyPrefix,
		CleanupIntervalMinutes: c.StorageCleanupIntervalMinutes,
	}
}

// Monitor assembles the MonitorConfig from its constituent fields.
func (c *Config) Monitor() MonitorConfig {
	return MonitorConfig{
		IntervalMinutes:        c.MonitorIntervalMinutes,
		CleanupIntervalMinutes: c.MonitorCleanupIntervalMinutes,
		AlertThreshold:         c.MonitorAlertThreshold,
	}
}
