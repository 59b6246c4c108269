package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dataset.CSVFile != DefaultCSVFile {
		t.Errorf("CSVFile = %q, want %q", cfg.Dataset.CSVFile, DefaultCSVFile)
	}
	if cfg.Server.Port != 8084 {
		t.Errorf("Port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Logger.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Logger.Format)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v, want enabled at /metrics", cfg.Metrics)
	}
	if got := cfg.Address(); got != "localhost:8084" {
		t.Errorf("Address() = %q", got)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CSV_FILE", "/data/sales.csv")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Dataset.CSVFile != "/data/sales.csv" {
		t.Errorf("CSVFile = %q", cfg.Dataset.CSVFile)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logger.Level)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{"port out of range", "SERVER_PORT", "70000", "Port"},
		{"unknown log level", "LOG_LEVEL", "verbose", "Level"},
		{"unknown log format", "LOG_FORMAT", "xml", "Format"},
		{"non-positive rps", "SECURITY_RATE_LIMIT_RPS", "-1", "RateLimitRPS"},
		{"metrics path", "METRICS_PATH", "metrics", "Path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should mention %s", err, tt.field)
			}
		})
	}
}
