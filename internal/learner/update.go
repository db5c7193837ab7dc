package learner

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openeeap/openppo/internal/distributed"
	"github.com/openeeap/openppo/internal/observability/logging"
	"github.com/openeeap/openppo/internal/observability/metrics"
	"github.com/openeeap/openppo/internal/observability/trace"
	"github.com/openeeap/openppo/internal/optim"
	"github.com/openeeap/openppo/internal/policy"
	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/autograd"
	"github.com/openeeap/openppo/pkg/errors"
	"github.com/openeeap/openppo/pkg/types"
)

const (
	adaptiveAlphaMax = 1.0
	adaptiveAlphaMin = 1e-4
)

// ============================================================================
// Configuration
// ============================================================================

// Config is the recognized option surface of the updater.
type Config struct {
	ClipParam              float64
	PPOEpoch               int
	NumMiniBatch           int
	ValueLossCoef          float64
	EntropyCoef            float64
	AuxLossCoef            float64
	AuxEntropyCoef         float64
	LR                     float64
	Eps                    float64
	MaxGradNorm            float64
	UseClippedValueLoss    bool
	UseNormalizedAdvantage bool
	EntropyTargetFactor    float64
	UseAdaptiveEntropyPen  bool
}

// Validate checks the option ranges.
func (c Config) Validate() error {
	if c.ClipParam <= 0 {
		return errors.NewFromCode(errors.ErrCfgOutOfRange).WithDetails("clip_param", c.ClipParam)
	}
	if c.PPOEpoch < 1 {
		return errors.NewFromCode(errors.ErrCfgOutOfRange).WithDetails("ppo_epoch", c.PPOEpoch)
	}
	if c.NumMiniBatch < 1 {
		return errors.NewFromCode(errors.ErrCfgOutOfRange).WithDetails("num_mini_batch", c.NumMiniBatch)
	}
	if c.LR <= 0 {
		return errors.NewFromCode(errors.ErrCfgOutOfRange).WithDetails("lr", c.LR)
	}
	if c.Eps < 0 {
		return errors.NewFromCode(errors.ErrCfgOutOfRange).WithDetails("eps", c.Eps)
	}
	return nil
}

// Deps bundles the ambient collaborators of the updater. Zero-value fields
// fall back to no-op implementations.
type Deps struct {
	Logger  logging.Logger
	Metrics *metrics.MetricsCollector
	Tracer  trace.Tracer
	Group   distributed.ProcessGroup
}

func (d *Deps) applyDefaults() {
	if d.Logger == nil {
		d.Logger = logging.NewNoopLogger()
	}
	if d.Tracer == nil {
		d.Tracer = trace.NewNoopTracer()
	}
	if d.Group == nil {
		d.Group = distributed.NewNoopGroup()
	}
}

// ============================================================================
// Updater
// ============================================================================

// Updater runs clipped-surrogate policy optimization over collected
// rollouts.
type Updater interface {
	// Update runs ppo_epoch x num_mini_batch optimization steps over
	// rollouts and returns the mean of every diagnostic
	Update(ctx context.Context, rollouts *rollout.Storage) (map[types.MetricKey]float64, error)

	// ResumeState captures the optimizer state for checkpointing
	ResumeState() ResumeState

	// LoadResumeState restores a previously captured resume state
	LoadResumeState(state ResumeState) error

	// EntropyCoefficient exposes the active entropy coefficient
	EntropyCoefficient() EntropyCoefficient
}

// ppoUpdater is the concrete PPO implementation of Updater.
type ppoUpdater struct {
	cfg     Config
	policy  policy.Policy
	variant types.PolicyVariant

	entropyCoef  EntropyCoefficient
	estimator    *AdvantageEstimator
	assembler    *LossAssembler
	synchronizer *GradientSynchronizer
	optimizer    optim.Optimizer
	group        distributed.ProcessGroup

	logger  logging.Logger
	metrics *metrics.MetricsCollector
	tracer  trace.Tracer
}

// NewPPO builds an updater over actorCritic with the given configuration.
// Adaptive entropy mode activates only when requested and the policy
// reports both an action count and a Gaussian distribution; otherwise the
// fixed coefficient is used without error.
func NewPPO(actorCritic policy.Policy, cfg Config, deps Deps) (Updater, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	deps.applyDefaults()

	entropyCoef := buildEntropyCoefficient(actorCritic, cfg)
	variant := policy.VariantOf(actorCritic)

	params := append(actorCritic.Parameters(), entropyCoef.Parameters()...)
	optimizer := optim.NewAdam(params, cfg.LR, cfg.Eps)

	nonAC := nonPolicyParams(params, actorCritic.PolicyParameters())

	u := &ppoUpdater{
		cfg:         cfg,
		policy:      actorCritic,
		variant:     variant,
		entropyCoef: entropyCoef,
		estimator:   NewAdvantageEstimator(cfg.UseNormalizedAdvantage),
		assembler: NewLossAssembler(
			cfg.ClipParam,
			cfg.ValueLossCoef,
			cfg.AuxLossCoef,
			cfg.AuxEntropyCoef,
			cfg.UseClippedValueLoss,
			variant == types.PolicyVariantAttentive,
			entropyCoef,
		),
		synchronizer: NewGradientSynchronizer(
			optimizer,
			deps.Group,
			actorCritic.PolicyParameters(),
			actorCritic.AuxLossParameters(),
			nonAC,
			cfg.MaxGradNorm,
		),
		optimizer: optimizer,
		group:     deps.Group,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
	}

	u.logger.Info("ppo updater constructed",
		logging.Int("trainable_params", len(params)),
		logging.Int("non_ac_params", len(nonAC)),
		logging.String("policy_variant", variant.String()),
		logging.Bool("adaptive_entropy", entropyCoef.Adaptive()),
		logging.Int("world_size", deps.Group.WorldSize()),
	)
	return u, nil
}

// buildEntropyCoefficient resolves the fixed-versus-adaptive decision once
// at construction.
func buildEntropyCoefficient(actorCritic policy.Policy, cfg Config) EntropyCoefficient {
	if cfg.UseAdaptiveEntropyPen {
		numActions, ok := actorCritic.NumActions()
		if ok && actorCritic.DistributionType() == types.DistributionGaussian {
			return NewLagrangeInequalityCoefficient(
				-cfg.EntropyTargetFactor*float64(numActions),
				cfg.EntropyCoef,
				adaptiveAlphaMax,
				adaptiveAlphaMin,
				true,
			)
		}
	}
	return NewFixedEntropyCoefficient(cfg.EntropyCoef)
}

// nonPolicyParams returns the parameters of all that are not in the
// primary policy group.
func nonPolicyParams(all, policyGroup []*autograd.Value) []*autograd.Value {
	inPolicy := make(map[*autograd.Value]bool, len(policyGroup))
	for _, p := range policyGroup {
		inPolicy[p] = true
	}
	out := make([]*autograd.Value, 0, len(all)-len(policyGroup))
	for _, p := range all {
		if !inPolicy[p] {
			out = append(out, p)
		}
	}
	return out
}

// SetHooks installs the optional extension points invoked around each
// minibatch step.
func (u *ppoUpdater) SetHooks(hooks Hooks) {
	u.synchronizer.SetHooks(hooks)
}

// EntropyCoefficient exposes the active entropy coefficient
func (u *ppoUpdater) EntropyCoefficient() EntropyCoefficient {
	return u.entropyCoef
}

// ============================================================================
// Update Loop
// ============================================================================

// Update computes advantages once, then runs ppo_epoch epochs of
// num_mini_batch minibatch steps. Any error aborts the call; no partial
// metrics are returned.
func (u *ppoUpdater) Update(ctx context.Context, rollouts *rollout.Storage) (map[types.MetricKey]float64, error) {
	ctx, span := u.tracer.Start(ctx, "PPO.Update")
	defer span.End()

	// Cancellation releases the minibatch producer when an error aborts
	// the loop mid-epoch
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	advantages := u.estimator.Compute(rollouts)

	acc := newMetricsAccumulator()
	for epoch := 0; epoch < u.cfg.PPOEpoch; epoch++ {
		gen, err := rollouts.DataGenerator(ctx, advantages, u.cfg.NumMiniBatch)
		if err != nil {
			return nil, err
		}
		for batch := range gen {
			if err := u.updateFromBatch(ctx, &batch, rollouts, epoch, acc); err != nil {
				u.logger.WithContext(ctx).Error("minibatch update failed",
					logging.Int("epoch", epoch),
					logging.Error(err),
				)
				return nil, err
			}
		}
	}

	// Leave no gradients behind between update calls
	u.synchronizer.ZeroGrad()

	report := acc.reduce()
	u.publish(report, time.Since(start))
	return report, nil
}

// updateFromBatch runs one minibatch: policy evaluation, loss assembly,
// the synchronized gradient step, dual projection, and metric recording.
func (u *ppoUpdater) updateFromBatch(ctx context.Context, batch *rollout.Batch, rollouts *rollout.Storage, epoch int, acc metricsAccumulator) error {
	ctx, span := u.tracer.Start(ctx, "PPO.UpdateFromBatch")
	defer span.End()

	if err := batch.Validate(); err != nil {
		return err
	}

	res, auxEntropy, err := u.evaluate(batch)
	if err != nil {
		return err
	}

	assembled, err := u.assembler.Assemble(res, auxEntropy, batch)
	if err != nil {
		return err
	}

	gradNorm, err := u.synchronizer.Step(ctx, assembled.Total)
	if err != nil {
		return err
	}

	u.entropyCoef.ProjectIntoBounds()

	u.record(acc, batch, rollouts, assembled, gradNorm, epoch)
	return nil
}

// evaluate dispatches on the policy variant resolved at construction.
func (u *ppoUpdater) evaluate(batch *rollout.Batch) (*policy.EvalResult, *autograd.Value, error) {
	if u.variant == types.PolicyVariantAttentive {
		attentive := u.policy.(policy.AttentivePolicy)
		res, err := attentive.EvaluateActionsAttentive(batch)
		if err != nil {
			return nil, nil, errors.NewFromCode(errors.ErrLearnEvaluationFailed).WithCause(err)
		}
		return &res.EvalResult, res.AuxEntropy, nil
	}

	res, err := u.policy.EvaluateActions(batch)
	if err != nil {
		return nil, nil, errors.NewFromCode(errors.ErrLearnEvaluationFailed).WithCause(err)
	}
	return res, nil, nil
}

// record appends this minibatch's diagnostics to the accumulator.
func (u *ppoUpdater) record(acc metricsAccumulator, batch *rollout.Batch, rollouts *rollout.Storage, assembled *AssembledLoss, gradNorm float64, epoch int) {
	acc.add(types.MetricValueLoss, assembled.ValueLoss)
	acc.add(types.MetricActionLoss, assembled.ActionLoss)
	acc.add(types.MetricDistEntropy, assembled.DistEntropy)
	acc.add(types.MetricGradNorm, gradNorm)

	// End-of-optimization diagnostic: final epoch only
	if epoch == u.cfg.PPOEpoch-1 {
		acc.add(types.MetricFractionClipped, u.assembler.FractionClipped(assembled.Ratios))
	}

	if u.entropyCoef.Adaptive() {
		acc.add(types.MetricEntropyCoef, u.entropyCoef.Value())
	}

	acc.addStats(types.MetricValuePredMin, types.MetricValuePredMean, types.MetricValuePredMax, assembled.ValuePreds)
	acc.addStats(types.MetricProbRatioMin, types.MetricProbRatioMean, types.MetricProbRatioMax, assembled.Ratios)

	if batch.IsCoeffs != nil {
		acc.addStats(types.MetricISCoeffsMin, types.MetricISCoeffsMean, types.MetricISCoeffsMax, batch.IsCoeffs)
	}
	if batch.IsStale != nil {
		stale := 0
		for _, s := range batch.IsStale {
			if s {
				stale++
			}
		}
		acc.add(types.MetricFractionStale, float64(stale)/float64(len(batch.IsStale)))
	}
	if rollouts.Versioned() && batch.PolicyVersions != nil {
		diffs := make([]float64, len(batch.PolicyVersions))
		for i, v := range batch.PolicyVersions {
			diffs[i] = float64(rollouts.PolicyVersion() - v)
		}
		acc.addStats(types.MetricPolicyVersionDiffMin, types.MetricPolicyVersionDiffMean, types.MetricPolicyVersionDiffMax, diffs)
	}

	if types.IsFinite(assembled.AuxEntropy) {
		acc.add(types.MetricAuxEntropy, assembled.AuxEntropy)
	}
	for key, v := range assembled.AuxMetrics {
		acc.add(key, v)
	}
}

// publish mirrors the reduced report to the metrics collector and logs a
// one-line summary.
func (u *ppoUpdater) publish(report map[types.MetricKey]float64, elapsed time.Duration) {
	if u.metrics != nil {
		labels := prometheus.Labels{}
		for key, v := range report {
			name := "learner_" + key.String()
			u.metrics.RegisterGauge(name, "Mean learner diagnostic over one update call", nil)
			u.metrics.SetGauge(name, v, labels)
		}
		u.metrics.ObserveHistogram("learner_update_duration_seconds", elapsed.Seconds(), labels)
		u.metrics.IncrementCounter("learner_updates_total", labels)
	}

	u.logger.Info("update complete",
		logging.Duration("elapsed", elapsed),
		logging.Float64("value_loss", report[types.MetricValueLoss]),
		logging.Float64("action_loss", report[types.MetricActionLoss]),
		logging.Float64("dist_entropy", report[types.MetricDistEntropy]),
		logging.Float64("grad_norm", report[types.MetricGradNorm]),
	)
}

// ============================================================================
// Metrics Accumulation
// ============================================================================

// metricsAccumulator collects scalar observations per metric key across the
// minibatches of one update call.
type metricsAccumulator map[types.MetricKey][]float64

func newMetricsAccumulator() metricsAccumulator {
	return make(metricsAccumulator)
}

func (m metricsAccumulator) add(key types.MetricKey, v float64) {
	m[key] = append(m[key], v)
}

func (m metricsAccumulator) addStats(minKey, meanKey, maxKey types.MetricKey, values []float64) {
	stats := types.Summarize(values)
	m.add(minKey, stats.Min)
	m.add(meanKey, stats.Mean)
	m.add(maxKey, stats.Max)
}

// reduce collapses every sequence to its mean.
func (m metricsAccumulator) reduce() map[types.MetricKey]float64 {
	out := make(map[types.MetricKey]float64, len(m))
	for key, seq := range m {
		out[key] = types.Mean(seq)
	}
	return out
}

//Personal.AI order the ending
