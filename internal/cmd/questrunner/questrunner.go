// Package questrunner parses questrunner flags and launches the runtime.
package questrunner

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/questrunner/internal/platform/cmd"
	"github.com/louisbranch/questrunner/internal/platform/discovery"
	"github.com/louisbranch/questrunner/internal/platform/timeouts"
	server "github.com/louisbranch/questrunner/internal/services/runner/app"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/combat"
)

// Config holds questrunner command configuration.
type Config struct {
	Port          int           `env:"QUESTRUNNER_PORT" envDefault:"8095"`
	DBPath        string        `env:"QUESTRUNNER_DB_PATH" envDefault:"data/questrunner.db"`
	CatalogDir    string        `env:"QUESTRUNNER_CATALOG_DIR" envDefault:"quests"`
	OverrideDir   string        `env:"QUESTRUNNER_OVERRIDE_DIR"`
	EngineAddr    string        `env:"QUESTRUNNER_ENGINE_ADDR"`
	EngineWait    bool          `env:"QUESTRUNNER_ENGINE_WAIT" envDefault:"false"`
	DialTimeout   time.Duration `env:"QUESTRUNNER_DIAL_TIMEOUT"`
	TickInterval  time.Duration `env:"QUESTRUNNER_TICK_INTERVAL" envDefault:"100ms"`
	Settle        time.Duration `env:"QUESTRUNNER_SETTLE" envDefault:"500ms"`
	CombatModule  string        `env:"QUESTRUNNER_COMBAT_MODULE" envDefault:"local"`
	FallbackLocal bool          `env:"QUESTRUNNER_COMBAT_FALLBACK_LOCAL" envDefault:"true"`
	CallerID      string        `env:"QUESTRUNNER_CALLER_ID" envDefault:"questrunner"`
	CallerName    string        `env:"QUESTRUNNER_CALLER_NAME" envDefault:"Quest Runner"`
	MCPStdio      bool          `env:"QUESTRUNNER_MCP_STDIO" envDefault:"false"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = timeouts.GRPCDial
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "The health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path of the SQLite database")
	fs.StringVar(&cfg.CatalogDir, "catalog-dir", cfg.CatalogDir, "Directory of shipped quest definitions")
	fs.StringVar(&cfg.OverrideDir, "override-dir", cfg.OverrideDir, "Directory of user quest definitions that replace shipped ones")
	fs.StringVar(&cfg.EngineAddr, "engine-addr", cfg.EngineAddr, "Combat automation engine address (default "+discovery.DefaultGRPCAddr(discovery.ServiceRotation)+" when leased)")
	fs.BoolVar(&cfg.EngineWait, "engine-wait", cfg.EngineWait, "Wait for the combat engine to report SERVING on start")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "Combat engine dial timeout")
	fs.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "Interval between task updates")
	fs.DurationVar(&cfg.Settle, "settle", cfg.Settle, "Pause after each automatic step")
	fs.StringVar(&cfg.CombatModule, "combat", cfg.CombatModule, "Combat module: local or leased")
	fs.BoolVar(&cfg.FallbackLocal, "combat-fallback-local", cfg.FallbackLocal, "Use the local rotation when the combat engine is unavailable")
	fs.StringVar(&cfg.CallerID, "caller-id", cfg.CallerID, "Caller id sent with lease requests")
	fs.StringVar(&cfg.CallerName, "caller-name", cfg.CallerName, "Caller name sent with lease requests")
	fs.BoolVar(&cfg.MCPStdio, "mcp", cfg.MCPStdio, "Serve the MCP control surface on stdio")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := combat.ParseKind(cfg.CombatModule); err != nil {
		return Config{}, fmt.Errorf("combat module: %w", err)
	}
	return cfg, nil
}

// RuntimeConfig maps command configuration onto the runtime.
func (c Config) RuntimeConfig() server.Config {
	kind, _ := combat.ParseKind(c.CombatModule)
	engineAddr := c.EngineAddr
	if kind == combat.KindLeased {
		engineAddr = discovery.OrDefaultGRPCAddr(engineAddr, discovery.ServiceRotation)
	}
	port := c.Port
	if port <= 0 {
		port = discovery.DefaultGRPCPort(discovery.ServiceRunner)
	}
	return server.Config{
		Port:         port,
		DBPath:       c.DBPath,
		CatalogDir:   c.CatalogDir,
		OverrideDir:  c.OverrideDir,
		EngineAddr:   engineAddr,
		EngineWait:   c.EngineWait,
		DialTimeout:  c.DialTimeout,
		TickInterval: c.TickInterval,
		Settle:       c.Settle,
		Combat:       combat.Settings{Module: kind, FallbackLocal: c.FallbackLocal},
		CallerID:     c.CallerID,
		CallerName:   c.CallerName,
		MCPStdio:     c.MCPStdio,
	}
}

// Run starts the questrunner runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRunner, func(ctx context.Context) error {
		return server.Run(ctx, cfg.RuntimeConfig())
	})
}
