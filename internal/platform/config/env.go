// Package config holds the env-backed configuration helpers shared by every
// questrunner command.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable read by the commands.
const EnvPrefix = "QUESTRUNNER_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// EnvName returns the prefixed environment variable name for key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.TrimSpace(key))
}
