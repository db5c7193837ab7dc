// Package metrics provides metrics collection and exposition for openppo.
// It integrates Prometheus SDK to define and collect the core learner
// metrics including losses, gradient norms, entropy, update durations,
// checkpointing, and collective-communication health.
package metrics

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================================
// Metrics Collector
// ============================================================================

// MetricsCollector manages Prometheus metrics collection
type MetricsCollector struct {
	// Prometheus registry
	registry *prometheus.Registry

	// Namespace for metrics
	namespace string

	// Subsystem for metrics
	subsystem string

	// Registered metrics
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	summaries  map[string]*prometheus.SummaryVec

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// CollectorConfig defines metrics collector configuration
type CollectorConfig struct {
	// Namespace for all metrics
	Namespace string

	// Subsystem for metrics grouping
	Subsystem string

	// Enable default Go metrics
	EnableGoMetrics bool

	// Enable process metrics
	EnableProcessMetrics bool

	// Custom registry (optional)
	Registry *prometheus.Registry
}

// ============================================================================
// Collector Initialization
// ============================================================================

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(cfg CollectorConfig) *MetricsCollector {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Register default collectors if enabled
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}

	collector := &MetricsCollector{
		registry:   registry,
		namespace:  cfg.Namespace,
		subsystem:  cfg.Subsystem,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		summaries:  make(map[string]*prometheus.SummaryVec),
	}

	// Register core business metrics
	collector.registerCoreMetrics()

	return collector
}

// ============================================================================
// Core Business Metrics Registration
// ============================================================================

// registerCoreMetrics registers all core learner metrics
func (c *MetricsCollector) registerCoreMetrics() {
	// Update loop metrics
	c.RegisterCounter("learner_updates_total", "Total number of completed update calls", nil)
	c.RegisterCounter("learner_update_errors_total", "Total number of aborted update calls", []string{"error_type"})
	c.RegisterHistogram("learner_update_duration_seconds", "Update call duration in seconds", nil, prometheus.DefBuckets)

	// Loss and optimization diagnostics
	c.RegisterGauge("learner_value_loss", "Mean value-function loss of the last update", nil)
	c.RegisterGauge("learner_action_loss", "Mean clipped-surrogate policy loss of the last update", nil)
	c.RegisterGauge("learner_dist_entropy", "Mean action-distribution entropy of the last update", nil)
	c.RegisterGauge("learner_grad_norm", "Mean pre-clip policy gradient norm of the last update", nil)
	c.RegisterGauge("learner_entropy_coef", "Current adaptive entropy coefficient", nil)
	c.RegisterGauge("learner_ppo_fraction_clipped", "Fraction of samples outside the clip interval", nil)

	// Rollout metrics
	c.RegisterGauge("rollout_samples", "Number of samples in the last consumed rollout", nil)
	c.RegisterGauge("rollout_fraction_stale", "Fraction of stale samples in the last rollout", nil)

	// Distributed metrics
	c.RegisterGauge("distributed_world_size", "Number of workers in the process group", nil)
	c.RegisterCounter("distributed_all_reduce_total", "Total all-reduce collectives issued", nil)
	c.RegisterHistogram("distributed_all_reduce_wait_seconds", "Time spent waiting on in-flight reductions", nil, prometheus.DefBuckets)

	// Checkpoint metrics
	c.RegisterCounter("checkpoint_saves_total", "Total resume-state checkpoints written", []string{"status"})
	c.RegisterCounter("checkpoint_loads_total", "Total resume-state checkpoints restored", []string{"status"})
	c.RegisterHistogram("checkpoint_io_duration_seconds", "Checkpoint read/write duration", []string{"operation"}, prometheus.DefBuckets)

	// System metrics
	c.RegisterGauge("system_goroutines_count", "Number of goroutines", nil)
	c.RegisterGauge("system_memory_alloc_bytes", "Allocated memory in bytes", nil)
}

// ============================================================================
// Counter Operations
// ============================================================================

// RegisterCounter registers a new counter metric
func (c *MetricsCollector) RegisterCounter(name, help string, labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.counters[name]; exists {
		return
	}

	counter := promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: c.subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)

	c.counters[name] = counter
}

// IncrementCounter increments a counter by 1
func (c *MetricsCollector) IncrementCounter(name string, labels prometheus.Labels) {
	c.mu.RLock()
	counter, exists := c.counters[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	counter.With(labels).Inc()
}

// AddCounter adds a value to a counter
func (c *MetricsCollector) AddCounter(name string, value float64, labels prometheus.Labels) {
	c.mu.RLock()
	counter, exists := c.counters[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	counter.With(labels).Add(value)
}

// ============================================================================
// Gauge Operations
// ============================================================================

// RegisterGauge registers a new gauge metric
func (c *MetricsCollector) RegisterGauge(name, help string, labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.gauges[name]; exists {
		return
	}

	gauge := promauto.With(c.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: c.subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)

	c.gauges[name] = gauge
}

// SetGauge sets a gauge value
func (c *MetricsCollector) SetGauge(name string, value float64, labels prometheus.Labels) {
	c.mu.RLock()
	gauge, exists := c.gauges[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	gauge.With(labels).Set(value)
}

// IncrementGauge increments a gauge by 1
func (c *MetricsCollector) IncrementGauge(name string, labels prometheus.Labels) {
	c.mu.RLock()
	gauge, exists := c.gauges[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	gauge.With(labels).Inc()
}

// DecrementGauge decrements a gauge by 1
func (c *MetricsCollector) DecrementGauge(name string, labels prometheus.Labels) {
	c.mu.RLock()
	gauge, exists := c.gauges[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	gauge.With(labels).Dec()
}

// AddGauge adds a value to a gauge
func (c *MetricsCollector) AddGauge(name string, value float64, labels prometheus.Labels) {
	c.mu.RLock()
	gauge, exists := c.gauges[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	gauge.With(labels).Add(value)
}

// ============================================================================
// Histogram Operations
// ============================================================================

// RegisterHistogram registers a new histogram metric
func (c *MetricsCollector) RegisterHistogram(name, help string, labels []string, buckets []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.histograms[name]; exists {
		return
	}

	histogram := promauto.With(c.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.namespace,
			Subsystem: c.subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)

	c.histograms[name] = histogram
}

// ObserveHistogram records a value in histogram
func (c *MetricsCollector) ObserveHistogram(name string, value float64, labels prometheus.Labels) {
	c.mu.RLock()
	histogram, exists := c.histograms[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	histogram.With(labels).Observe(value)
}

// ObserveDuration records duration in histogram
func (c *MetricsCollector) ObserveDuration(name string, start time.Time, labels prometheus.Labels) {
	duration := time.Since(start).Seconds()
	c.ObserveHistogram(name, duration, labels)
}

// ============================================================================
// Summary Operations
// ============================================================================

// RegisterSummary registers a new summary metric
func (c *MetricsCollector) RegisterSummary(name, help string, labels []string, objectives map[float64]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.summaries[name]; exists {
		return
	}

	summary := promauto.With(c.registry).NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  c.namespace,
			Subsystem:  c.subsystem,
			Name:       name,
			Help:       help,
			Objectives: objectives,
		},
		labels,
	)

	c.summaries[name] = summary
}

// ObserveSummary records a value in summary
func (c *MetricsCollector) ObserveSummary(name string, value float64, labels prometheus.Labels) {
	c.mu.RLock()
	summary, exists := c.summaries[name]
	c.mu.RUnlock()

	if !exists {
		return
	}

	summary.With(labels).Observe(value)
}

// ============================================================================
// HTTP Handler
// ============================================================================

// Handler returns HTTP handler for metrics exposition
func (c *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ServeHTTP implements http.Handler interface
func (c *MetricsCollector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.Handler().ServeHTTP(w, r)
}

// ============================================================================
// Utility Methods
// ============================================================================

// RecordUpdate records one completed update call
func (c *MetricsCollector) RecordUpdate(duration time.Duration) {
	c.IncrementCounter("learner_updates_total", nil)
	c.ObserveHistogram("learner_update_duration_seconds", duration.Seconds(), nil)
}

// RecordUpdateError records an aborted update call
func (c *MetricsCollector) RecordUpdateError(errorType string) {
	c.IncrementCounter("learner_update_errors_total", prometheus.Labels{
		"error_type": errorType,
	})
}

// RecordRollout records the size and staleness of a consumed rollout
func (c *MetricsCollector) RecordRollout(samples int, fractionStale float64) {
	c.SetGauge("rollout_samples", float64(samples), nil)
	c.SetGauge("rollout_fraction_stale", fractionStale, nil)
}

// RecordAllReduce records one issued all-reduce and its wait time
func (c *MetricsCollector) RecordAllReduce(wait time.Duration) {
	c.IncrementCounter("distributed_all_reduce_total", nil)
	c.ObserveHistogram("distributed_all_reduce_wait_seconds", wait.Seconds(), nil)
}

// RecordCheckpointSave records a resume-state write
func (c *MetricsCollector) RecordCheckpointSave(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.IncrementCounter("checkpoint_saves_total", prometheus.Labels{"status": status})
	c.ObserveHistogram("checkpoint_io_duration_seconds", duration.Seconds(), prometheus.Labels{
		"operation": "save",
	})
}

// RecordCheckpointLoad records a resume-state restore
func (c *MetricsCollector) RecordCheckpointLoad(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.IncrementCounter("checkpoint_loads_total", prometheus.Labels{"status": status})
	c.ObserveHistogram("checkpoint_io_duration_seconds", duration.Seconds(), prometheus.Labels{
		"operation": "load",
	})
}

// RecordSystemStats samples runtime counters into the system gauges
func (c *MetricsCollector) RecordSystemStats() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	c.SetGauge("system_goroutines_count", float64(runtime.NumGoroutine()), nil)
	c.SetGauge("system_memory_alloc_bytes", float64(ms.Alloc), nil)
}

// ============================================================================
// Global Collector
// ============================================================================

var globalCollector *MetricsCollector
var once sync.Once

// GetGlobalCollector returns the global metrics collector
func GetGlobalCollector() *MetricsCollector {
	once.Do(func() {
		globalCollector = NewMetricsCollector(CollectorConfig{
			Namespace:            "openppo",
			EnableGoMetrics:      true,
			EnableProcessMetrics: true,
		})
	})
	return globalCollector
}

// SetGlobalCollector sets the global metrics collector
func SetGlobalCollector(collector *MetricsCollector) {
	globalCollector = collector
}

//Personal.AI order the ending
