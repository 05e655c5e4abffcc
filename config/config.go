// Package config defines the pipeline's runtime parameters, following the
// teacher's config.Parameters / DefaultParams / Valid ladder.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Error variables for parameter validation, mirroring config.Err* in the
// teacher.
var (
	ErrParametersInvalid = errors.New("invalid pipeline parameters")
	ErrInvalidWorkers    = errors.New("workers must be >= 1")
	ErrInvalidCPU        = errors.New("default cpu cores must be > 0")
	ErrInvalidRAM        = errors.New("default ram gb must be > 0")
	ErrInvalidTimeout    = errors.New("default validator timeout must be > 0")
	ErrInvalidStaleTol   = errors.New("gate stale tolerance must be >= 0")
)

// Parameters controls the executor's worker pool, the result cache, and the
// defaults applied to validators that don't declare their own resource
// requirements, timeout, retries, or TTL.
type Parameters struct {
	// Workers bounds the executor's concurrent validator count. Overridden
	// by PIPELINE_WORKERS when positive.
	Workers int

	// CacheDir enables a disk-backed result cache when non-empty.
	// Overridden by PIPELINE_CACHE_DIR.
	CacheDir string

	// PoolCPUCores and PoolRAMGB size the shared resource pool the executor
	// gates validator starts against.
	PoolCPUCores float64
	PoolRAMGB    float64

	DefaultTimeout    time.Duration
	DefaultMaxRetries int
	DefaultRetryDelay time.Duration
	DefaultTTL        time.Duration

	// GateStaleTolerance is loaded from gate_stale_tolerance_seconds and
	// must be non-negative, but no component reads it: the aggregator
	// blocks the gate on every stale phase-owned path whatever its value.
	GateStaleTolerance time.Duration

	StopOnFatalError bool
	StopOnFailure    bool
}

// DefaultParams returns the baseline configuration.
func DefaultParams() Parameters {
	return Parameters{
		Workers:            4,
		PoolCPUCores:       4,
		PoolRAMGB:          8,
		DefaultTimeout:     30 * time.Second,
		DefaultMaxRetries:  2,
		DefaultRetryDelay:  500 * time.Millisecond,
		DefaultTTL:         5 * time.Minute,
		GateStaleTolerance: 0,
		StopOnFatalError:   true,
		StopOnFailure:      false,
	}
}

// StrictParams mirrors DefaultParams but stops the whole run on the first
// validation failure, suited to CI gating.
func StrictParams() Parameters {
	p := DefaultParams()
	p.StopOnFailure = true
	return p
}

// FastParams trims retries and timeouts for local iteration.
func FastParams() Parameters {
	p := DefaultParams()
	p.DefaultMaxRetries = 0
	p.DefaultTimeout = 5 * time.Second
	p.DefaultTTL = 30 * time.Second
	return p
}

// WithEnvOverrides applies PIPELINE_WORKERS and PIPELINE_CACHE_DIR, per
// spec.md §6.
func (p Parameters) WithEnvOverrides() Parameters {
	if v := os.Getenv("PIPELINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Workers = n
		}
	}
	if v := os.Getenv("PIPELINE_CACHE_DIR"); v != "" {
		p.CacheDir = v
	}
	return p
}

// fileParameters mirrors Parameters for pipeline.yaml, with every field
// optional so a config file only needs to override what differs from
// DefaultParams.
type fileParameters struct {
	Workers  *int    `yaml:"workers"`
	CacheDir *string `yaml:"cache_dir"`

	PoolCPUCores *float64 `yaml:"pool_cpu_cores"`
	PoolRAMGB    *float64 `yaml:"pool_ram_gb"`

	DefaultTimeoutSeconds    *float64 `yaml:"default_timeout_seconds"`
	DefaultMaxRetries        *int     `yaml:"default_max_retries"`
	DefaultRetryDelaySeconds *float64 `yaml:"default_retry_delay_seconds"`
	DefaultTTLSeconds        *float64 `yaml:"default_ttl_seconds"`

	GateStaleToleranceSeconds *float64 `yaml:"gate_stale_tolerance_seconds"`

	StopOnFatalError *bool `yaml:"stop_on_fatal_error"`
	StopOnFailure    *bool `yaml:"stop_on_failure"`
}

func seconds(f float64) time.Duration { return time.Duration(f * float64(time.Second)) }

// LoadFile reads a pipeline.yaml configuration file and layers its fields
// over DefaultParams, then applies WithEnvOverrides. A missing file is not
// an error — it returns DefaultParams().WithEnvOverrides() unchanged.
func LoadFile(path string) (Parameters, error) {
	p := DefaultParams()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p.WithEnvOverrides(), nil
		}
		return p, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var raw fileParameters
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return p, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if raw.Workers != nil {
		p.Workers = *raw.Workers
	}
	if raw.CacheDir != nil {
		p.CacheDir = *raw.CacheDir
	}
	if raw.PoolCPUCores != nil {
		p.PoolCPUCores = *raw.PoolCPUCores
	}
	if raw.PoolRAMGB != nil {
		p.PoolRAMGB = *raw.PoolRAMGB
	}
	if raw.DefaultTimeoutSeconds != nil {
		p.DefaultTimeout = seconds(*raw.DefaultTimeoutSeconds)
	}
	if raw.DefaultMaxRetries != nil {
		p.DefaultMaxRetries = *raw.DefaultMaxRetries
	}
	if raw.DefaultRetryDelaySeconds != nil {
		p.DefaultRetryDelay = seconds(*raw.DefaultRetryDelaySeconds)
	}
	if raw.DefaultTTLSeconds != nil {
		p.DefaultTTL = seconds(*raw.DefaultTTLSeconds)
	}
	if raw.GateStaleToleranceSeconds != nil {
		p.GateStaleTolerance = seconds(*raw.GateStaleToleranceSeconds)
	}
	if raw.StopOnFatalError != nil {
		p.StopOnFatalError = *raw.StopOnFatalError
	}
	if raw.StopOnFailure != nil {
		p.StopOnFailure = *raw.StopOnFailure
	}

	return p.WithEnvOverrides(), nil
}

// Valid validates parameters.
func (p Parameters) Valid() error {
	if p.Workers < 1 {
		return ErrInvalidWorkers
	}
	if p.PoolCPUCores <= 0 {
		return ErrInvalidCPU
	}
	if p.PoolRAMGB <= 0 {
		return ErrInvalidRAM
	}
	if p.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if p.GateStaleTolerance < 0 {
		return ErrInvalidStaleTol
	}
	if p.DefaultMaxRetries < 0 {
		return ErrParametersInvalid
	}
	return nil
}
