// Package config provides centralized configuration management for openppo.
// It defines configuration structures for all components and supports
// validation, default values, and environment-based configuration loading.
package config

import (
	"fmt"
)

// ============================================================================
// Main Configuration Structure
// ============================================================================

// Config represents the complete application configuration
type Config struct {
	// App configuration
	App AppConfig `mapstructure:"app" yaml:"app" json:"app"`

	// Learner configuration
	Learner LearnerConfig `mapstructure:"learner" yaml:"learner" json:"learner"`

	// Distributed configuration
	Distributed DistributedConfig `mapstructure:"distributed" yaml:"distributed" json:"distributed"`

	// Checkpoint configuration
	Checkpoint CheckpointConfig `mapstructure:"checkpoint" yaml:"checkpoint" json:"checkpoint"`

	// Demo training-loop configuration
	Demo DemoConfig `mapstructure:"demo" yaml:"demo" json:"demo"`

	// Observability configuration
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability" json:"observability"`
}

// ============================================================================
// Application Configuration
// ============================================================================

// AppConfig defines application-level settings
type AppConfig struct {
	// Name of the service
	Name string `mapstructure:"name" yaml:"name" json:"name"`

	// Environment (development, staging, production)
	Environment string `mapstructure:"environment" yaml:"environment" json:"environment"`
}

// ============================================================================
// Learner Configuration
// ============================================================================

// LearnerConfig is the recognized option surface of the update core
type LearnerConfig struct {
	// Surrogate and value clip width
	ClipParam float64 `mapstructure:"clip_param" yaml:"clip_param" json:"clip_param"`

	// Number of optimization epochs per update
	PPOEpoch int `mapstructure:"ppo_epoch" yaml:"ppo_epoch" json:"ppo_epoch"`

	// Number of minibatches per epoch
	NumMiniBatch int `mapstructure:"num_mini_batch" yaml:"num_mini_batch" json:"num_mini_batch"`

	// Weight of the value loss term
	ValueLossCoef float64 `mapstructure:"value_loss_coef" yaml:"value_loss_coef" json:"value_loss_coef"`

	// Entropy coefficient (fixed mode) or initial alpha (adaptive mode)
	EntropyCoef float64 `mapstructure:"entropy_coef" yaml:"entropy_coef" json:"entropy_coef"`

	// Weight of the auxiliary losses under the weighted path
	AuxLossCoef float64 `mapstructure:"aux_loss_coef" yaml:"aux_loss_coef" json:"aux_loss_coef"`

	// Weight of the auxiliary entropy penalty
	AuxEntropyCoef float64 `mapstructure:"aux_entropy_coef" yaml:"aux_entropy_coef" json:"aux_entropy_coef"`

	// Optimizer learning rate
	LR float64 `mapstructure:"lr" yaml:"lr" json:"lr"`

	// Optimizer numerical epsilon
	Eps float64 `mapstructure:"eps" yaml:"eps" json:"eps"`

	// Per-group gradient norm ceiling
	MaxGradNorm float64 `mapstructure:"max_grad_norm" yaml:"max_grad_norm" json:"max_grad_norm"`

	// Enable double-sided value clipping
	UseClippedValueLoss bool `mapstructure:"use_clipped_value_loss" yaml:"use_clipped_value_loss" json:"use_clipped_value_loss"`

	// Standardize advantages before the update
	UseNormalizedAdvantage bool `mapstructure:"use_normalized_advantage" yaml:"use_normalized_advantage" json:"use_normalized_advantage"`

	// Entropy target factor for adaptive mode
	EntropyTargetFactor float64 `mapstructure:"entropy_target_factor" yaml:"entropy_target_factor" json:"entropy_target_factor"`

	// Switch to the adaptive entropy coefficient
	UseAdaptiveEntropyPen bool `mapstructure:"use_adaptive_entropy_pen" yaml:"use_adaptive_entropy_pen" json:"use_adaptive_entropy_pen"`
}

// ============================================================================
// Distributed Configuration
// ============================================================================

// DistributedConfig defines the process-group topology
type DistributedConfig struct {
	// Backend selects the group implementation (none, local)
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`

	// WorldSize is the number of workers
	WorldSize int `mapstructure:"world_size" yaml:"world_size" json:"world_size"`

	// Rank of this worker
	Rank int `mapstructure:"rank" yaml:"rank" json:"rank"`
}

// ============================================================================
// Checkpoint Configuration
// ============================================================================

// CheckpointConfig defines resume-state persistence
type CheckpointConfig struct {
	// Dir is the checkpoint directory
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`

	// Interval saves a checkpoint every N updates; 0 disables
	Interval int `mapstructure:"interval" yaml:"interval" json:"interval"`
}

// ============================================================================
// Demo Configuration
// ============================================================================

// DemoConfig parameterizes the synthetic training loop of the learner
// binary
type DemoConfig struct {
	// ObsDim is the observation dimensionality
	ObsDim int `mapstructure:"obs_dim" yaml:"obs_dim" json:"obs_dim"`

	// NumActions is the action-space size or dimensionality
	NumActions int `mapstructure:"num_actions" yaml:"num_actions" json:"num_actions"`

	// Distribution selects the policy family (categorical, gaussian)
	Distribution string `mapstructure:"distribution" yaml:"distribution" json:"distribution"`

	// Samples per synthetic rollout
	Samples int `mapstructure:"samples" yaml:"samples" json:"samples"`

	// Updates to run before exiting; 0 runs until signalled
	Updates int `mapstructure:"updates" yaml:"updates" json:"updates"`

	// Seed for the synthetic environment
	Seed int64 `mapstructure:"seed" yaml:"seed" json:"seed"`
}

// ============================================================================
// Observability Configuration
// ============================================================================

// ObservabilityConfig groups logging, metrics, and tracing
type ObservabilityConfig struct {
	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	// Tracing configuration
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Log level (debug, info, warn, error, fatal)
	Level string `mapstructure:"level" yaml:"level" json:"level"`

	// Log format (json, text)
	Format string `mapstructure:"format" yaml:"format" json:"format"`

	// Output (stdout, stderr, file)
	Output string `mapstructure:"output" yaml:"output" json:"output"`

	// Log file path (if output is file)
	FilePath string `mapstructure:"file_path" yaml:"file_path" json:"file_path"`

	// Max file size in MB
	MaxSize int `mapstructure:"max_size" yaml:"max_size" json:"max_size"`

	// Max backup files
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups" json:"max_backups"`

	// Max age in days
	MaxAge int `mapstructure:"max_age" yaml:"max_age" json:"max_age"`

	// Enable compression
	Compress bool `mapstructure:"compress" yaml:"compress" json:"compress"`
}

// MetricsConfig defines metrics configuration
type MetricsConfig struct {
	// Enable metrics collection
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Metrics port
	Port int `mapstructure:"port" yaml:"port" json:"port"`

	// Metrics path
	Path string `mapstructure:"path" yaml:"path" json:"path"`

	// Prometheus configuration
	Prometheus PrometheusConfig `mapstructure:"prometheus" yaml:"prometheus" json:"prometheus"`
}

// PrometheusConfig defines Prometheus-specific configuration
type PrometheusConfig struct {
	// Namespace for metrics
	Namespace string `mapstructure:"namespace" yaml:"namespace" json:"namespace"`

	// Subsystem for metrics
	Subsystem string `mapstructure:"subsystem" yaml:"subsystem" json:"subsystem"`

	// Enable histogram metrics
	EnableHistogram bool `mapstructure:"enable_histogram" yaml:"enable_histogram" json:"enable_histogram"`
}

// TracingConfig defines distributed tracing configuration
type TracingConfig struct {
	// Enable tracing
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Provider (jaeger, zipkin, otlp)
	Provider string `mapstructure:"provider" yaml:"provider" json:"provider"`

	// Endpoint
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Service name
	ServiceName string `mapstructure:"service_name" yaml:"service_name" json:"service_name"`

	// Sampling rate (0.0 - 1.0)
	SamplingRate float64 `mapstructure:"sampling_rate" yaml:"sampling_rate" json:"sampling_rate"`
}

// ============================================================================
// Validation
// ============================================================================

// Validate performs configuration validation
func (c *Config) Validate() error {
	if err := c.Learner.Validate(); err != nil {
		return err
	}
	if err := c.Distributed.Validate(); err != nil {
		return err
	}
	if err := c.Demo.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks learner option ranges
func (lc *LearnerConfig) Validate() error {
	if lc.ClipParam <= 0 {
		return fmt.Errorf("learner.clip_param must be positive, got %v", lc.ClipParam)
	}
	if lc.PPOEpoch < 1 {
		return fmt.Errorf("learner.ppo_epoch must be at least 1, got %d", lc.PPOEpoch)
	}
	if lc.NumMiniBatch < 1 {
		return fmt.Errorf("learner.num_mini_batch must be at least 1, got %d", lc.NumMiniBatch)
	}
	if lc.LR <= 0 {
		return fmt.Errorf("learner.lr must be positive, got %v", lc.LR)
	}
	if lc.Eps < 0 {
		return fmt.Errorf("learner.eps must be non-negative, got %v", lc.Eps)
	}
	return nil
}

// Validate checks the distributed topology
func (dc *DistributedConfig) Validate() error {
	switch dc.Backend {
	case "", "none", "local":
	default:
		return fmt.Errorf("distributed.backend must be one of none, local; got %q", dc.Backend)
	}
	if dc.WorldSize < 1 {
		return fmt.Errorf("distributed.world_size must be at least 1, got %d", dc.WorldSize)
	}
	if dc.Rank < 0 || dc.Rank >= dc.WorldSize {
		return fmt.Errorf("distributed.rank must be in [0, %d), got %d", dc.WorldSize, dc.Rank)
	}
	return nil
}

// Validate checks the demo loop settings
func (dc *DemoConfig) Validate() error {
	if dc.ObsDim < 1 {
		return fmt.Errorf("demo.obs_dim must be at least 1, got %d", dc.ObsDim)
	}
	if dc.NumActions < 1 {
		return fmt.Errorf("demo.num_actions must be at least 1, got %d", dc.NumActions)
	}
	switch dc.Distribution {
	case "categorical", "gaussian":
	default:
		return fmt.Errorf("demo.distribution must be categorical or gaussian, got %q", dc.Distribution)
	}
	if dc.Samples < 1 {
		return fmt.Errorf("demo.samples must be at least 1, got %d", dc.Samples)
	}
	return nil
}

//Personal.AI order the ending
