package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ECHOBOARD_CONFIG is set
//  3. env (prefix ECHOBOARD_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ECHOBOARD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, WrapLoad(err)
		}
	}

	// Environment variables: ECHOBOARD_ADDR, ECHOBOARD_QUEUE_SIZE, ...
	// Map env keys like ECHOBOARD_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ECHOBOARD_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "echoboard_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, WrapLoad(err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, WrapLoad(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return ErrEmptyAddr
	}
	if c.DataDir == "" {
		return ErrEmptyDataDir
	}
	if c.QueueSize <= 0 || c.WorkerCount <= 0 {
		return ErrInvalidPool
	}
	return nil
}
