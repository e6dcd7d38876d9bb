package configparser

import (
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Host string `env:"TESTCFG_HOST" default:"0.0.0.0"`
		Port int    `env:"TESTCFG_PORT" default:"3000"`
	}
	Timeout  time.Duration `env:"TESTCFG_TIMEOUT" default:"30s"`
	Rate     float64       `env:"TESTCFG_RATE" default:"1.25"`
	Disabled bool          `env:"TESTCFG_DISABLED" default:"false"`
	NoTag    string
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want default 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Port = %d, want default 3000", cfg.Server.Port)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.Rate != 1.25 {
		t.Errorf("Rate = %v, want 1.25", cfg.Rate)
	}
	if cfg.Disabled {
		t.Error("Disabled = true, want default false")
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("TESTCFG_HOST", "10.0.0.5")
	t.Setenv("TESTCFG_PORT", "8080")
	t.Setenv("TESTCFG_TIMEOUT", "1m30s")
	t.Setenv("TESTCFG_DISABLED", "true")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}

	if cfg.Server.Host != "10.0.0.5" {
		t.Errorf("Host = %q, want 10.0.0.5", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %s, want 1m30s", cfg.Timeout)
	}
	if !cfg.Disabled {
		t.Error("Disabled = false, want true")
	}
}

func TestParseEnvRejectsNonPointer(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(cfg); err == nil {
		t.Error("ParseEnv accepted a non-pointer config")
	}
}

func TestParseEnvBadValue(t *testing.T) {
	t.Setenv("TESTCFG_PORT", "not-a-number")

	var cfg testConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Error("ParseEnv accepted a non-numeric port")
	}
}
