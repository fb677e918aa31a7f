package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name  string
		check func(*Config) bool
	}{
		{"default host is 0.0.0.0", func(c *Config) bool { return c.Host == "0.0.0.0" }},
		{"default port is 8080", func(c *Config) bool { return c.Port == 8080 }},
		{"default log level is info", func(c *Config) bool { return c.LogLevel == "info" }},
		{"default log format is json", func(c *Config) bool { return c.LogFormat == "json" }},
		{"default metrics path", func(c *Config) bool { return c.MetricsPath == "/metrics" }},
		{"listen addr format", func(c *Config) bool { return c.ListenAddr() == "0.0.0.0:8080" }},
		{"rate limiting enabled by default", func(c *Config) bool { return c.RateLimitEnabled }},
		{"default storage kind is memory", func(c *Config) bool { return c.StorageKindRaw == "memory" }},
		{"default monitor interval", func(c *Config) bool { return c.MonitorIntervalMinutes == 1 }},
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(cfg) {
				t.Errorf("unexpected default for %s", tt.name)
			}
		})
	}
}

func TestDefaultPolicy_Decodes(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	policy, err := cfg.DefaultPolicy()
	if err != nil {
		t.Fatalf("DefaultPolicy() error: %v", err)
	}
	if policy.Name != "default" {
		t.Errorf("policy.Name = %q, want %q", policy.Name, "default")
	}
	if policy.RequestLimit != 100 {
		t.Errorf("policy.RequestLimit = %d, want 100", policy.RequestLimit)
	}
	if policy.WindowSizeSeconds != 60 {
		t.Errorf("policy.WindowSizeSeconds = %d, want 60", policy.WindowSizeSeconds)
	}
}

func TestTenantPolicies_EmptyByDefault(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	policies, err := cfg.TenantPolicies()
	if err != nil {
		t.Fatalf("TenantPolicies() error: %v", err)
	}
	if len(policies) != 0 {
		t.Errorf("expected no tenant policy overrides by default, got %d", len(policies))
	}
}

func TestEndpointPolicies_EmptyByDefault(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	policies, err := cfg.EndpointPolicies()
	if err != nil {
		t.Fatalf("EndpointPolicies() error: %v", err)
	}
	if len(policies) != 0 {
		t.Errorf("expected no endpoint policies by default, got %d", len(policies))
	}
}
