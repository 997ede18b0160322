package questrunner

import (
	"flag"
	"testing"
	"time"

	"github.com/louisbranch/questrunner/internal/platform/timeouts"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/combat"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("questrunner", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8095 {
		t.Fatalf("port = %d, want 8095", cfg.Port)
	}
	if cfg.CombatModule != "local" {
		t.Fatalf("combat module = %q, want local", cfg.CombatModule)
	}
	if cfg.TickInterval != 100*time.Millisecond {
		t.Fatalf("tick = %v, want 100ms", cfg.TickInterval)
	}
	if cfg.DialTimeout != timeouts.GRPCDial {
		t.Fatalf("dial timeout = %v, want %v", cfg.DialTimeout, timeouts.GRPCDial)
	}
	if !cfg.FallbackLocal {
		t.Fatal("expected local fallback by default")
	}

	runtime := cfg.RuntimeConfig()
	if runtime.EngineAddr != "" {
		t.Fatalf("engine addr = %q, want empty for local combat", runtime.EngineAddr)
	}
	if runtime.Combat.Module != combat.KindLocal {
		t.Fatalf("runtime combat = %q, want local", runtime.Combat.Module)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("QUESTRUNNER_PORT", "9100")
	t.Setenv("QUESTRUNNER_COMBAT_MODULE", "leased")
	t.Setenv("QUESTRUNNER_TICK_INTERVAL", "250ms")

	fs := flag.NewFlagSet("questrunner", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "9200", "-mcp", "-override-dir", "/tmp/quests"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9200 {
		t.Fatalf("port = %d, want flag value 9200", cfg.Port)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Fatalf("tick = %v, want env value 250ms", cfg.TickInterval)
	}
	if !cfg.MCPStdio || cfg.OverrideDir != "/tmp/quests" {
		t.Fatalf("cfg = %+v, want mcp and override dir from flags", cfg)
	}

	runtime := cfg.RuntimeConfig()
	if runtime.Combat.Module != combat.KindLeased {
		t.Fatalf("runtime combat = %q, want leased", runtime.Combat.Module)
	}
	if runtime.EngineAddr != "rotation:8096" {
		t.Fatalf("engine addr = %q, want default rotation address", runtime.EngineAddr)
	}
}

func TestParseConfigRejectsUnknownCombatModule(t *testing.T) {
	fs := flag.NewFlagSet("questrunner", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-combat", "scripted"}); err == nil {
		t.Fatal("expected combat module error")
	}
}

func TestRuntimeConfigDefaultsPort(t *testing.T) {
	cfg := Config{Port: 0, CombatModule: "local"}
	if got := cfg.RuntimeConfig().Port; got != 8095 {
		t.Fatalf("port = %d, want 8095", got)
	}
}
