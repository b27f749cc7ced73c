// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"math"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory match queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rating workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many submitted match ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of result store shards.
	ShardCount int `koanf:"shard_count"`

	// MaxSamples caps engine.samples.
	MaxSamples int `koanf:"max_samples"`

	// RandomSeed makes live estimates reproducible when non-zero.
	RandomSeed int64 `koanf:"random_seed"`

	// LegacyLiveFields swaps p_a and p_b in live_probability responses for
	// clients that depend on the historical field assignment.
	LegacyLiveFields bool `koanf:"legacy_live_fields"`

	Engine Engine `koanf:"engine"`
}

// Engine holds the rating and probability constants.
type Engine struct {
	Beta              float64 `koanf:"beta"`
	Tau               float64 `koanf:"tau"`
	K                 float64 `koanf:"k"`
	LambdaUncertainty float64 `koanf:"lambda_uncertainty"`
	SoftmaxTemp       float64 `koanf:"softmax_temp"`
	MaxRating         float64 `koanf:"max_rating"`
	GammaPos          float64 `koanf:"gamma_pos"`
	GammaNeg          float64 `koanf:"gamma_neg"`
	MarginScale       float64 `koanf:"margin_scale"`
	ShrinkFloor       float64 `koanf:"shrink_floor"`
	SigmaFloor        float64 `koanf:"sigma_floor"`

	Target      int     `koanf:"target"`
	WinBy       int     `koanf:"win_by"`
	PointWeight float64 `koanf:"point_weight"`
	Phi         float64 `koanf:"phi"`
	Samples     int     `koanf:"samples"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		QueueSize:   10_000,
		WorkerCount: runtime.NumCPU() * 2,
		DedupeSize:  100_000,
		ShardCount:  16,
		MaxSamples:  20_000,
		Engine: Engine{
			Beta:              4.1667,
			Tau:               0.05,
			K:                 2.5,
			LambdaUncertainty: 0.6,
			SoftmaxTemp:       5.0,
			MaxRating:         100.0,
			GammaPos:          2.0,
			GammaNeg:          1.0,
			MarginScale:       11.0,
			ShrinkFloor:       0.80,
			SigmaFloor:        1.0,
			Target:            11,
			WinBy:             2,
			PointWeight:       0.2,
			Phi:               5.0,
			Samples:           300,
		},
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	e := c.Engine
	checks := []struct {
		ok  bool
		msg string
	}{
		{strings.TrimSpace(c.Addr) != "", "addr must not be empty"},
		{c.QueueSize > 0, "queue_size must be positive"},
		{c.MaxSamples > 0, "max_samples must be positive"},
		{finite(e.Beta) && e.Beta >= 0, "engine.beta must be non-negative"},
		{finite(e.Tau) && e.Tau >= 0, "engine.tau must be non-negative"},
		{finite(e.K) && e.K > 0, "engine.k must be positive"},
		{e.LambdaUncertainty >= 0 && e.LambdaUncertainty <= 1, "engine.lambda_uncertainty must be in [0,1]"},
		{finite(e.SoftmaxTemp) && e.SoftmaxTemp > 0, "engine.softmax_temp must be positive"},
		{finite(e.MaxRating) && e.MaxRating > 0, "engine.max_rating must be positive"},
		{finite(e.GammaPos) && e.GammaPos >= 0 && finite(e.GammaNeg) && e.GammaNeg >= 0, "engine taper exponents must be non-negative"},
		{finite(e.MarginScale) && e.MarginScale > 0, "engine.margin_scale must be positive"},
		{e.ShrinkFloor > 0 && e.ShrinkFloor <= 1, "engine.shrink_floor must be in (0,1]"},
		{finite(e.SigmaFloor) && e.SigmaFloor > 0, "engine.sigma_floor must be positive"},
		{e.Target >= 1, "engine.target must be at least 1"},
		{e.WinBy >= 1, "engine.win_by must be at least 1"},
		{e.PointWeight >= 0 && e.PointWeight <= 1, "engine.point_weight must be in [0,1]"},
		{finite(e.Phi) && e.Phi > 0, "engine.phi must be positive"},
		{e.Samples >= 1 && e.Samples <= c.MaxSamples, "engine.samples must be in [1,max_samples]"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, chk.msg)
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
