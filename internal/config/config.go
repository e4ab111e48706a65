// Package config loads planrag settings from the environment. A .env
// file in the working directory is read first when present; real
// environment variables always win over .env values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/clearplan/planrag/internal/cache"
	"github.com/clearplan/planrag/internal/engine"
	"github.com/clearplan/planrag/internal/storage"
)

// DefaultDBPath is used when PLANRAG_DB_PATH is unset
const DefaultDBPath = "planrag.db"

// Config holds all runtime settings
type Config struct {
	DBPath       string
	EmbeddingDim int
	VectorWeight float64
	TextWeight   float64
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
	Verbose      bool
}

// Load reads configuration from the environment, applying defaults
// for anything unset
func Load() (*Config, error) {
	// Missing .env is fine; only explicit settings are required.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:       DefaultDBPath,
		EmbeddingDim: storage.DefaultEmbeddingDim,
		VectorWeight: engine.DefaultVectorWeight,
		TextWeight:   engine.DefaultTextWeight,
		CacheTTL:     cache.DefaultTTL,
		DefaultLimit: engine.DefaultLimit,
		MaxLimit:     engine.MaxLimit,
	}

	if v := os.Getenv("PLANRAG_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	var err error
	if cfg.EmbeddingDim, err = intVar("PLANRAG_EMBEDDING_DIM", cfg.EmbeddingDim); err != nil {
		return nil, err
	}
	if cfg.VectorWeight, err = floatVar("PLANRAG_VECTOR_WEIGHT", cfg.VectorWeight); err != nil {
		return nil, err
	}
	if cfg.TextWeight, err = floatVar("PLANRAG_TEXT_WEIGHT", cfg.TextWeight); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationVar("PLANRAG_CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.DefaultLimit, err = intVar("PLANRAG_DEFAULT_LIMIT", cfg.DefaultLimit); err != nil {
		return nil, err
	}
	if cfg.MaxLimit, err = intVar("PLANRAG_MAX_LIMIT", cfg.MaxLimit); err != nil {
		return nil, err
	}
	if cfg.Verbose, err = boolVar("PLANRAG_VERBOSE", false); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EngineOptions converts the config into engine options
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		VectorWeight: c.VectorWeight,
		TextWeight:   c.TextWeight,
		DefaultLimit: c.DefaultLimit,
		MaxLimit:     c.MaxLimit,
		CacheTTL:     c.CacheTTL,
	}
}

func (c *Config) validate() error {
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDim)
	}
	if c.VectorWeight < 0 || c.TextWeight < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if c.DefaultLimit <= 0 || c.MaxLimit <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	if c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("default limit %d exceeds max limit %d", c.DefaultLimit, c.MaxLimit)
	}
	return nil
}

func intVar(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func floatVar(name string, def float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func durationVar(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func boolVar(name string, def bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}
