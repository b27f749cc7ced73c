package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "RALLY_"
	envConfig  = "RALLY_CONFIG"
	engineKey  = "engine"
	keyDivider = "."
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file named by RALLY_CONFIG
//  3. env (prefix RALLY_; RALLY_ENGINE_SAMPLES maps to engine.samples)
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(keyDivider)

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, keyDivider, envKey), nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps RALLY_QUEUE_SIZE to queue_size and RALLY_ENGINE_WIN_BY to
// engine.win_by. Underscores inside a key are kept to match the koanf tags.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if s == "config" {
		return ""
	}
	if rest, ok := strings.CutPrefix(s, engineKey+"_"); ok {
		return engineKey + keyDivider + rest
	}
	return s
}
