// Package cmd holds the startup plumbing of the questrunner command:
// QUESTRUNNER_* environment defaults overridden by flags, and a run wrapper
// that installs tracing before the runtime starts and flushes it on exit.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/questrunner/internal/platform/config"
	"github.com/louisbranch/questrunner/internal/platform/otel"
	"github.com/louisbranch/questrunner/internal/platform/timeouts"
)

// ServiceRunner is the service name reported by the questrunner command.
const ServiceRunner = "questrunner"

// ParseConfig loads QUESTRUNNER_* environment defaults into cfg. Flags
// registered afterwards use these values as their defaults.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs the OTLP tracer provider for service, runs the
// runtime loop and flushes pending spans once it returns. Spans of the
// orchestrator and of the engine client share this provider.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
