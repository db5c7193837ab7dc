// Package main implements the openppo learner service. It runs the policy
// optimization loop over synthetic rollouts, exposes Prometheus metrics,
// and periodically persists resume state for warm restarts.
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openeeap/openppo/internal/distributed"
	"github.com/openeeap/openppo/internal/learner"
	"github.com/openeeap/openppo/internal/observability/logging"
	"github.com/openeeap/openppo/internal/observability/metrics"
	"github.com/openeeap/openppo/internal/observability/trace"
	"github.com/openeeap/openppo/internal/policy"
	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/config"
	"github.com/openeeap/openppo/pkg/errors"
)

const (
	serviceName = "openppo-learner"

	log2Pi = 1.8378770664093453

	shutdownTimeout = 10 * time.Second
)

var (
	// Version is the application version
	Version = "dev"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

var cfgFile string

// rootCmd is the learner entrypoint
var rootCmd = &cobra.Command{
	Use:   "openppo-learner",
	Short: "openppo learner - distributed policy optimization service",
	Long: `The openppo learner consumes rollouts and optimizes the policy with
clipped-surrogate updates. It supports single-process and simulated
multi-worker operation, Prometheus metrics exposition, and resume-state
checkpointing.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the training loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLearner()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s (commit %s, built %s)\n", serviceName, Version, GitCommit, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// ============================================================================
// Service Wiring
// ============================================================================

// runLearner wires configuration, observability, the process group, and the
// per-worker training loops, then blocks until completion or a signal.
func runLearner() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting learner service",
		logging.String("service", serviceName),
		logging.String("version", Version),
		logging.String("environment", cfg.App.Environment),
	)

	tracer, err := initTracer(cfg)
	if err != nil {
		logger.Error("tracer initialization failed, continuing without tracing", logging.Error(err))
		tracer = trace.NewNoopTracer()
	}
	defer tracer.Shutdown(context.Background())

	collector := initMetrics(cfg)
	metricsSrv := startMetricsServer(cfg, collector, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = runWorkers(ctx, cfg, logger, collector, tracer)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if metricsSrv != nil {
		if serr := metricsSrv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("metrics server shutdown failed", logging.Error(serr))
		}
	}

	if err != nil {
		logger.Error("learner service exited with error", logging.Error(err))
		return err
	}
	logger.Info("learner service stopped gracefully")
	return nil
}

// loadConfig loads configuration from file, search paths, and environment.
func loadConfig() (*config.Config, error) {
	loader, err := config.NewLoader(config.LoaderOptions{
		ConfigFile: cfgFile,
		ConfigType: "yaml",
	})
	if err != nil {
		return nil, err
	}
	return loader.Load()
}

// initLogger builds the service logger from the logging configuration.
func initLogger(cfg *config.Config) (logging.Logger, error) {
	lc := logging.LogConfig{
		Level:    cfg.Observability.Logging.Level,
		Format:   cfg.Observability.Logging.Format,
		Output:   cfg.Observability.Logging.Output,
		FilePath: cfg.Observability.Logging.FilePath,
	}
	if lc.Output == "file" && lc.FilePath != "" {
		lc.MaxSize = cfg.Observability.Logging.MaxSize
		lc.MaxBackups = cfg.Observability.Logging.MaxBackups
		lc.MaxAge = cfg.Observability.Logging.MaxAge
		lc.Compress = cfg.Observability.Logging.Compress
		return logging.NewZapLoggerWithRotation(lc)
	}
	return logging.NewZapLogger(lc)
}

// initTracer builds the tracer, or a no-op when tracing is disabled.
func initTracer(cfg *config.Config) (trace.Tracer, error) {
	if !cfg.Observability.Tracing.Enabled {
		return trace.NewNoopTracer(), nil
	}
	return trace.NewTracer(trace.TracerConfig{
		ServiceName:    cfg.Observability.Tracing.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Environment,
		Provider:       cfg.Observability.Tracing.Provider,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
	})
}

// initMetrics builds the Prometheus collector.
func initMetrics(cfg *config.Config) *metrics.MetricsCollector {
	return metrics.NewMetricsCollector(metrics.CollectorConfig{
		Namespace:            cfg.Observability.Metrics.Prometheus.Namespace,
		Subsystem:            cfg.Observability.Metrics.Prometheus.Subsystem,
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	})
}

// startMetricsServer exposes the collector over HTTP when metrics are
// enabled. Returns nil when disabled.
func startMetricsServer(cfg *config.Config, collector *metrics.MetricsCollector, logger logging.Logger) *http.Server {
	if !cfg.Observability.Metrics.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Observability.Metrics.Path, collector.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Observability.Metrics.Port),
		Handler: mux,
	}
	go func() {
		logger.Info("metrics server listening",
			logging.String("addr", srv.Addr),
			logging.String("path", cfg.Observability.Metrics.Path),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", logging.Error(err))
		}
	}()
	return srv
}

// ============================================================================
// Worker Loops
// ============================================================================

// runWorkers starts one training loop per configured worker. With the
// "none" backend a single loop runs against a no-op group; with "local"
// every rank runs in its own goroutine and gradients rendezvous through an
// in-process cluster.
func runWorkers(ctx context.Context, cfg *config.Config, logger logging.Logger, collector *metrics.MetricsCollector, tracer trace.Tracer) error {
	collector.SetGauge("distributed_world_size", float64(cfg.Distributed.WorldSize), nil)

	if cfg.Distributed.Backend != "local" || cfg.Distributed.WorldSize == 1 {
		return trainLoop(ctx, cfg, 0, distributed.NewNoopGroup(), logger, collector, tracer)
	}

	cluster, err := distributed.NewLocalCluster(cfg.Distributed.WorldSize)
	if err != nil {
		return err
	}

	errs := make([]error, cfg.Distributed.WorldSize)
	var wg sync.WaitGroup
	for rank := 0; rank < cfg.Distributed.WorldSize; rank++ {
		group, err := cluster.Member(rank)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func(rank int, group distributed.ProcessGroup) {
			defer wg.Done()
			errs[rank] = trainLoop(ctx, cfg, rank, group, logger, collector, tracer)
		}(rank, group)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// trainLoop runs the update loop for one worker until the configured number
// of updates completes or ctx is cancelled. Rank 0 owns checkpointing.
func trainLoop(ctx context.Context, cfg *config.Config, rank int, group distributed.ProcessGroup, logger logging.Logger, collector *metrics.MetricsCollector, tracer trace.Tracer) error {
	ctx = logging.WithWorkerRank(ctx, rank)
	workerLog := logger.With(logging.Int("rank", rank))

	actorCritic, err := buildPolicy(cfg)
	if err != nil {
		return err
	}

	updater, err := learner.FromConfig(actorCritic, cfg, learner.Deps{
		Logger:  workerLog,
		Metrics: collector,
		Tracer:  tracer,
		Group:   group,
	})
	if err != nil {
		return err
	}

	ckptPath := checkpointPath(cfg, rank)
	if rank == 0 && cfg.Checkpoint.Interval > 0 {
		if err := restoreCheckpoint(updater, ckptPath, workerLog, collector); err != nil {
			return err
		}
	}

	rng := rand.New(rand.NewSource(cfg.Demo.Seed + int64(rank)))
	for update := 1; cfg.Demo.Updates == 0 || update <= cfg.Demo.Updates; update++ {
		select {
		case <-ctx.Done():
			workerLog.Info("training loop interrupted", logging.Int("completed_updates", update-1))
			return nil
		default:
		}

		rollouts, err := synthesizeRollout(cfg, rng, int64(update))
		if err != nil {
			return err
		}
		collector.RecordRollout(rollouts.Size(), 0)

		report, err := updater.Update(ctx, rollouts)
		if err != nil {
			collector.RecordUpdateError(errors.GetCode(err))
			return err
		}

		workerLog.Debug("update metrics recorded",
			logging.Int("update", update),
			logging.Int("metric_keys", len(report)),
		)

		if rank == 0 && cfg.Checkpoint.Interval > 0 && update%cfg.Checkpoint.Interval == 0 {
			saveStart := time.Now()
			err := learner.SaveResumeState(ckptPath, updater.ResumeState())
			collector.RecordCheckpointSave(time.Since(saveStart), err)
			if err != nil {
				return err
			}
			workerLog.Info("checkpoint saved",
				logging.Int("update", update),
				logging.String("path", ckptPath),
			)
		}
	}
	return nil
}

// buildPolicy constructs the policy family selected by the demo config.
func buildPolicy(cfg *config.Config) (policy.Policy, error) {
	switch cfg.Demo.Distribution {
	case "categorical":
		return policy.NewLinearCategorical(cfg.Demo.ObsDim, cfg.Demo.NumActions), nil
	case "gaussian":
		return policy.NewLinearGaussian(cfg.Demo.ObsDim, cfg.Demo.NumActions), nil
	default:
		return nil, errors.NewFromCode(errors.ErrCfgInvalidOption).
			WithDetails("demo.distribution", cfg.Demo.Distribution)
	}
}

// checkpointPath returns the per-rank resume-state path.
func checkpointPath(cfg *config.Config, rank int) string {
	return filepath.Join(cfg.Checkpoint.Dir, fmt.Sprintf("learner-rank%d.yaml", rank))
}

// restoreCheckpoint loads a previous resume state if one exists. A missing
// file is a cold start, not an error.
func restoreCheckpoint(updater learner.Updater, path string, logger logging.Logger, collector *metrics.MetricsCollector) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	loadStart := time.Now()
	state, err := learner.LoadResumeStateFile(path)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			logger.Info("no checkpoint found, starting cold", logging.String("path", path))
			return nil
		}
		collector.RecordCheckpointLoad(time.Since(loadStart), err)
		return err
	}
	collector.RecordCheckpointLoad(time.Since(loadStart), nil)

	if err := updater.LoadResumeState(state); err != nil {
		return err
	}
	logger.Info("resume state restored", logging.String("path", path))
	return nil
}

// ============================================================================
// Synthetic Rollouts
// ============================================================================

// synthesizeRollout fabricates one rollout from a fixed behavior policy:
// uniform actions for the categorical family, a standard normal for the
// Gaussian family. Returns follow the first observation coordinate so the
// critic has signal to fit.
func synthesizeRollout(cfg *config.Config, rng *rand.Rand, version int64) (*rollout.Storage, error) {
	n := cfg.Demo.Samples
	sc := rollout.StorageConfig{
		Observations:   make([][]float64, n),
		Masks:          make([]float64, n),
		Actions:        make([][]float64, n),
		ActionLogProbs: make([]float64, n),
		ValuePreds:     make([]float64, n),
		Returns:        make([]float64, n),
		PolicyVersions: make([]int64, n),
		PolicyVersion:  version,
		Seed:           rng.Int63(),
	}

	for i := 0; i < n; i++ {
		obs := make([]float64, cfg.Demo.ObsDim)
		for j := range obs {
			obs[j] = rng.NormFloat64()
		}
		sc.Observations[i] = obs
		sc.Masks[i] = 1
		sc.Returns[i] = obs[0] + 0.1*rng.NormFloat64()
		sc.PolicyVersions[i] = version

		switch cfg.Demo.Distribution {
		case "categorical":
			a := rng.Intn(cfg.Demo.NumActions)
			sc.Actions[i] = []float64{float64(a)}
			sc.ActionLogProbs[i] = -math.Log(float64(cfg.Demo.NumActions))
		case "gaussian":
			act := make([]float64, cfg.Demo.NumActions)
			sumSq := 0.0
			for k := range act {
				act[k] = rng.NormFloat64()
				sumSq += act[k] * act[k]
			}
			sc.Actions[i] = act
			sc.ActionLogProbs[i] = -0.5*sumSq - 0.5*float64(cfg.Demo.NumActions)*log2Pi
		}
	}

	return rollout.NewStorage(sc)
}

//Personal.AI order the ending
