// Package config provides configuration loading and management for openppo.
// It supports loading from YAML files, environment variables, and command-line
// arguments, with hot-reload capabilities using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ============================================================================
// Configuration Loader
// ============================================================================

// Loader manages configuration loading and reloading
type Loader struct {
	// Viper instance
	viper *viper.Viper

	// Current configuration
	config *Config
	mu     sync.RWMutex

	// Configuration file path
	configFile string

	// Watch for changes
	watchEnabled bool

	// Reload callbacks
	reloadCallbacks []ReloadCallback

	// Logger (optional, can be set after initialization)
	logger Logger
}

// ReloadCallback is called when configuration is reloaded
type ReloadCallback func(oldConfig, newConfig *Config) error

// Logger interface for configuration loader logging
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// LoaderOptions defines options for configuration loader
type LoaderOptions struct {
	// Configuration file path
	ConfigFile string

	// Configuration file type (yaml, json, toml)
	ConfigType string

	// Enable watching for file changes
	EnableWatch bool

	// Environment variable prefix
	EnvPrefix string

	// Additional config paths to search
	ConfigPaths []string
}

// ============================================================================
// Loader Creation and Initialization
// ============================================================================

// NewLoader creates a new configuration loader
func NewLoader(opts LoaderOptions) (*Loader, error) {
	v := viper.New()

	// Set configuration file
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		// Set default configuration name and type
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Add default config paths
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/openppo")

		// Add additional config paths
		for _, path := range opts.ConfigPaths {
			v.AddConfigPath(path)
		}
	}

	// Configure environment variables
	envPrefix := opts.EnvPrefix
	if envPrefix == "" {
		envPrefix = "OPENPPO"
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	loader := &Loader{
		viper:        v,
		configFile:   opts.ConfigFile,
		watchEnabled: opts.EnableWatch,
	}

	return loader, nil
}

// Load loads configuration from all sources
func (l *Loader) Load() (*Config, error) {
	// Read configuration file
	if err := l.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			l.logWarn("Configuration file not found, using defaults", "error", err)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal configuration
	config := &Config{}
	if err := l.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults
	l.applyDefaults(config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Store configuration
	l.mu.Lock()
	l.config = config
	l.mu.Unlock()

	l.logInfo("Configuration loaded successfully", "file", l.viper.ConfigFileUsed())

	// Start watching if enabled
	if l.watchEnabled {
		l.startWatch()
	}

	return config, nil
}

// Get returns the current configuration
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// ============================================================================
// Configuration Defaults
// ============================================================================

// applyDefaults applies default values to configuration
func (l *Loader) applyDefaults(config *Config) {
	// App defaults
	if config.App.Name == "" {
		config.App.Name = "openppo"
	}
	if config.App.Environment == "" {
		config.App.Environment = "development"
	}

	// Learner defaults
	if config.Learner.ClipParam == 0 {
		config.Learner.ClipParam = 0.2
	}
	if config.Learner.PPOEpoch == 0 {
		config.Learner.PPOEpoch = 4
	}
	if config.Learner.NumMiniBatch == 0 {
		config.Learner.NumMiniBatch = 2
	}
	if config.Learner.ValueLossCoef == 0 {
		config.Learner.ValueLossCoef = 0.5
	}
	if config.Learner.EntropyCoef == 0 {
		config.Learner.EntropyCoef = 0.01
	}
	if config.Learner.AuxLossCoef == 0 {
		config.Learner.AuxLossCoef = 1.0
	}
	if config.Learner.LR == 0 {
		config.Learner.LR = 2.5e-4
	}
	if config.Learner.Eps == 0 {
		config.Learner.Eps = 1e-5
	}
	if config.Learner.MaxGradNorm == 0 {
		config.Learner.MaxGradNorm = 0.5
	}
	if config.Learner.EntropyTargetFactor == 0 {
		config.Learner.EntropyTargetFactor = 0.5
	}

	// Distributed defaults
	if config.Distributed.Backend == "" {
		config.Distributed.Backend = "none"
	}
	if config.Distributed.WorldSize == 0 {
		config.Distributed.WorldSize = 1
	}

	// Checkpoint defaults
	if config.Checkpoint.Dir == "" {
		config.Checkpoint.Dir = "./checkpoints"
	}

	// Demo defaults
	if config.Demo.ObsDim == 0 {
		config.Demo.ObsDim = 4
	}
	if config.Demo.NumActions == 0 {
		config.Demo.NumActions = 2
	}
	if config.Demo.Distribution == "" {
		config.Demo.Distribution = "categorical"
	}
	if config.Demo.Samples == 0 {
		config.Demo.Samples = 64
	}
	if config.Demo.Seed == 0 {
		config.Demo.Seed = 1
	}

	// Observability defaults
	if config.Observability.Logging.Level == "" {
		config.Observability.Logging.Level = "info"
	}
	if config.Observability.Logging.Format == "" {
		config.Observability.Logging.Format = "json"
	}
	if config.Observability.Logging.Output == "" {
		config.Observability.Logging.Output = "stdout"
	}
	if config.Observability.Metrics.Port == 0 {
		config.Observability.Metrics.Port = 9090
	}
	if config.Observability.Metrics.Path == "" {
		config.Observability.Metrics.Path = "/metrics"
	}
	if config.Observability.Metrics.Prometheus.Namespace == "" {
		config.Observability.Metrics.Prometheus.Namespace = "openppo"
	}
	if config.Observability.Tracing.ServiceName == "" {
		config.Observability.Tracing.ServiceName = "openppo"
	}
	if config.Observability.Tracing.SamplingRate == 0 {
		config.Observability.Tracing.SamplingRate = 0.1
	}
}

// ============================================================================
// Hot Reload Support
// ============================================================================

// startWatch starts watching the configuration file for changes
func (l *Loader) startWatch() {
	l.viper.WatchConfig()
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		l.logInfo("Configuration file changed, reloading", "file", e.Name)

		if err := l.reload(); err != nil {
			l.logError("Failed to reload configuration", "error", err)
		}
	})
}

// reload reloads the configuration
func (l *Loader) reload() error {
	// Load old config
	l.mu.RLock()
	oldConfig := l.config
	l.mu.RUnlock()

	// Unmarshal new configuration
	newConfig := &Config{}
	if err := l.viper.Unmarshal(newConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults
	l.applyDefaults(newConfig)

	// Validate new configuration
	if err := newConfig.Validate(); err != nil {
		return fmt.Errorf("new configuration validation failed: %w", err)
	}

	// Execute reload callbacks
	for _, callback := range l.reloadCallbacks {
		if err := callback(oldConfig, newConfig); err != nil {
			return fmt.Errorf("reload callback failed: %w", err)
		}
	}

	// Update configuration
	l.mu.Lock()
	l.config = newConfig
	l.mu.Unlock()

	l.logInfo("Configuration reloaded successfully")

	return nil
}

// OnReload registers a callback to be called when configuration is reloaded
func (l *Loader) OnReload(callback ReloadCallback) {
	l.reloadCallbacks = append(l.reloadCallbacks, callback)
}

// ============================================================================
// Environment-Specific Loading
// ============================================================================

// LoadFromEnvironment loads configuration for specific environment
func LoadFromEnvironment(env string) (*Config, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	opts := LoaderOptions{
		ConfigFile:  configFile,
		ConfigType:  "yaml",
		EnableWatch: false,
		EnvPrefix:   "OPENPPO",
	}

	loader, err := NewLoader(opts)
	if err != nil {
		return nil, err
	}

	return loader.Load()
}

// LoadWithDefaults loads configuration with default options
func LoadWithDefaults() (*Config, error) {
	opts := LoaderOptions{
		ConfigType:  "yaml",
		EnableWatch: false,
		EnvPrefix:   "OPENPPO",
		ConfigPaths: []string{".", "./config", "/etc/openppo"},
	}

	loader, err := NewLoader(opts)
	if err != nil {
		return nil, err
	}

	return loader.Load()
}

// ============================================================================
// Configuration Export
// ============================================================================

// SaveToFile saves current configuration to file
func (l *Loader) SaveToFile(filepath string) error {
	return l.viper.WriteConfigAs(filepath)
}

// ============================================================================
// Logger Methods
// ============================================================================

// SetLogger sets the logger for configuration loader
func (l *Loader) SetLogger(logger Logger) {
	l.logger = logger
}

func (l *Loader) logInfo(msg string, fields ...interface{}) {
	if l.logger != nil {
		l.logger.Info(msg, fields...)
	}
}

func (l *Loader) logWarn(msg string, fields ...interface{}) {
	if l.logger != nil {
		l.logger.Warn(msg, fields...)
	}
}

func (l *Loader) logError(msg string, fields ...interface{}) {
	if l.logger != nil {
		l.logger.Error(msg, fields...)
	}
}

// ============================================================================
// Utility Functions
// ============================================================================

// GetConfigPath returns the path to configuration file
func GetConfigPath(filename string) (string, error) {
	// Check current directory
	if _, err := os.Stat(filename); err == nil {
		return filepath.Abs(filename)
	}

	// Check ./config directory
	configPath := filepath.Join("config", filename)
	if _, err := os.Stat(configPath); err == nil {
		return filepath.Abs(configPath)
	}

	// Check /etc/openppo directory
	etcPath := filepath.Join("/etc/openppo", filename)
	if _, err := os.Stat(etcPath); err == nil {
		return etcPath, nil
	}

	return "", fmt.Errorf("configuration file not found: %s", filename)
}

// MustLoad loads configuration and panics on error
func MustLoad() *Config {
	config, err := LoadWithDefaults()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return config
}

//Personal.AI order the ending
