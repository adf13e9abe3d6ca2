// Package config loads paddock configuration.
//
// Sources, lowest precedence first:
//
//  1. Defaults declared in the CUE schema below
//  2. An optional CUE file (usually paddock.cue)
//  3. PADDOCK_* environment variables
//
// CLI flags are applied on top by the caller. The merged result is validated
// against the schema again, so an environment override cannot produce a
// configuration the file could not.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"
)

// schemaCUE declares the configuration shape and its defaults.
// default_capacity must hold at least a record with an empty name.
const schemaCUE = `
#Config: {
	database:         string & !="" | *"paddock.db"
	default_capacity: int & >=17 & <=1048576 | *64
	caller:           string & !="" | *"local"
	log_level:        "debug" | "info" | "warn" | "error" | *"info"
}
`

// Config holds host settings.
type Config struct {
	// Database is the path of the SQLite ledger.
	Database string `json:"database" env:"PADDOCK_DATABASE"`

	// DefaultCapacity is the capacity used by `slot new` without --capacity.
	DefaultCapacity int `json:"default_capacity" env:"PADDOCK_DEFAULT_CAPACITY"`

	// Caller is the identity reported to the entrypoint.
	Caller string `json:"caller" env:"PADDOCK_CALLER"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" env:"PADDOCK_LOG_LEVEL"`
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := load("", map[string]string{})
	if err != nil {
		// The embedded schema is constant; failing here is a programming error.
		panic(fmt.Sprintf("config: invalid schema defaults: %v", err))
	}
	return *cfg
}

// Load reads the CUE file at path (skipped if path is empty), applies
// environment overrides from the process environment, and validates the
// result.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// load is Load with an explicit environment. A nil environ means the
// process environment.
func load(path string, environ map[string]string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		file := ctx.CompileBytes(data, cue.Filename(path))
		if err := file.Err(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		value = def.Unify(file)
	}

	var cfg Config
	if err := decode(value, &cfg); err != nil {
		return nil, err
	}

	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Re-check env overrides against the schema.
	merged := def.Unify(ctx.Encode(cfg))
	var out Config
	if err := decode(merged, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decode(v cue.Value, cfg *Config) error {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := v.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values map to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
