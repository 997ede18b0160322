package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port int           `env:"QUESTRUNNER_TEST_PORT" envDefault:"123"`
	Tick time.Duration `env:"QUESTRUNNER_TEST_TICK" envDefault:"250ms"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if cfg.Tick != 250*time.Millisecond {
		t.Fatalf("expected default tick 250ms, got %v", cfg.Tick)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("QUESTRUNNER_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName(" otel_endpoint "); got != "QUESTRUNNER_OTEL_ENDPOINT" {
		t.Fatalf("EnvName = %q, want %q", got, "QUESTRUNNER_OTEL_ENDPOINT")
	}
}
