package learner_test

import (
	"context"
	"math"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/openppo/internal/learner"
	"github.com/openeeap/openppo/internal/policy"
	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/errors"
	"github.com/openeeap/openppo/pkg/types"
)

// brokenPolicy fails every evaluation, aborting the update mid-epoch.
type brokenPolicy struct {
	*policy.LinearCategorical
}

func (p *brokenPolicy) EvaluateActions(*rollout.Batch) (*policy.EvalResult, error) {
	return nil, errors.NewFromCode(errors.ErrLearnEvaluationFailed)
}

// baseConfig returns a valid one-epoch, one-minibatch configuration.
func baseConfig() learner.Config {
	return learner.Config{
		ClipParam:     0.2,
		PPOEpoch:      1,
		NumMiniBatch:  1,
		ValueLossCoef: 0.5,
		EntropyCoef:   0.01,
		LR:            2.5e-4,
		Eps:           1e-5,
		MaxGradNorm:   0.5,
	}
}

// categoricalStorage builds a rollout whose behavior log-probs match a
// zero-initialized two-action policy.
func categoricalStorage(t *testing.T, returns []float64) *rollout.Storage {
	t.Helper()

	n := len(returns)
	cfg := rollout.StorageConfig{
		Observations:   make([][]float64, n),
		Masks:          make([]float64, n),
		Actions:        make([][]float64, n),
		ActionLogProbs: make([]float64, n),
		ValuePreds:     make([]float64, n),
		Returns:        returns,
		Seed:           1,
	}
	for i := 0; i < n; i++ {
		cfg.Observations[i] = []float64{0.1 * float64(i), -0.2}
		cfg.Masks[i] = 1
		cfg.Actions[i] = []float64{float64(i % 2)}
		cfg.ActionLogProbs[i] = -math.Log(2)
	}
	s, err := rollout.NewStorage(cfg)
	require.NoError(t, err)
	return s
}

// gaussianStorage builds a one-dimensional continuous rollout.
func gaussianStorage(t *testing.T, n int) *rollout.Storage {
	t.Helper()

	cfg := rollout.StorageConfig{
		Observations:   make([][]float64, n),
		Masks:          make([]float64, n),
		Actions:        make([][]float64, n),
		ActionLogProbs: make([]float64, n),
		ValuePreds:     make([]float64, n),
		Returns:        make([]float64, n),
		Seed:           1,
	}
	for i := 0; i < n; i++ {
		cfg.Observations[i] = []float64{0.5}
		cfg.Masks[i] = 1
		a := 0.3 * float64(i)
		cfg.Actions[i] = []float64{a}
		cfg.ActionLogProbs[i] = -0.5*a*a - 0.5*1.8378770664093453
		cfg.Returns[i] = 0.1 * float64(i)
	}
	s, err := rollout.NewStorage(cfg)
	require.NoError(t, err)
	return s
}

// TestNewPPO tests updater construction
func TestNewPPO(t *testing.T) {
	t.Run("Invalid configuration is rejected", func(t *testing.T) {
		cfg := baseConfig()
		cfg.ClipParam = 0

		_, err := learner.NewPPO(policy.NewLinearCategorical(2, 2), cfg, learner.Deps{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCfgOutOfRange.Code, errors.GetCode(err))
	})

	t.Run("Adaptive entropy falls back on categorical policies", func(t *testing.T) {
		cfg := baseConfig()
		cfg.UseAdaptiveEntropyPen = true
		cfg.EntropyTargetFactor = 0.5

		u, err := learner.NewPPO(policy.NewLinearCategorical(2, 2), cfg, learner.Deps{})
		require.NoError(t, err)
		assert.False(t, u.EntropyCoefficient().Adaptive())
	})

	t.Run("Adaptive entropy activates on Gaussian policies", func(t *testing.T) {
		cfg := baseConfig()
		cfg.UseAdaptiveEntropyPen = true
		cfg.EntropyTargetFactor = 0.5

		u, err := learner.NewPPO(policy.NewLinearGaussian(1, 1), cfg, learner.Deps{})
		require.NoError(t, err)
		assert.True(t, u.EntropyCoefficient().Adaptive())
	})
}

// TestUpdate tests the full optimization loop
func TestUpdate(t *testing.T) {
	t.Run("First update diagnostics match the uniform start", func(t *testing.T) {
		u, err := learner.NewPPO(policy.NewLinearCategorical(2, 2), baseConfig(), learner.Deps{})
		require.NoError(t, err)

		s := categoricalStorage(t, []float64{1, -1, 0.5, -0.5})
		report, err := u.Update(context.Background(), s)
		require.NoError(t, err)

		// advantages sum to zero and every ratio is exactly one
		assert.InDelta(t, 0.0, report[types.MetricActionLoss], 1e-9)
		assert.InDelta(t, math.Log(2), report[types.MetricDistEntropy], 1e-9)
		// mean of 0.5 * returns^2
		assert.InDelta(t, 0.3125, report[types.MetricValueLoss], 1e-9)
		assert.InDelta(t, 1.0, report[types.MetricProbRatioMean], 1e-9)
		assert.InDelta(t, 0.0, report[types.MetricFractionClipped], 1e-12)
		assert.InDelta(t, 0.0, report[types.MetricValuePredMean], 1e-12)
		assert.Greater(t, report[types.MetricGradNorm], 0.0)

		// the fixed coefficient never reports itself
		_, ok := report[types.MetricEntropyCoef]
		assert.False(t, ok)
	})

	t.Run("Adaptive coefficient is reported and stays in bounds", func(t *testing.T) {
		cfg := baseConfig()
		cfg.PPOEpoch = 2
		cfg.NumMiniBatch = 2
		cfg.UseAdaptiveEntropyPen = true
		cfg.EntropyTargetFactor = 0.5

		u, err := learner.NewPPO(policy.NewLinearGaussian(1, 1), cfg, learner.Deps{})
		require.NoError(t, err)

		report, err := u.Update(context.Background(), gaussianStorage(t, 6))
		require.NoError(t, err)

		coef, ok := report[types.MetricEntropyCoef]
		require.True(t, ok)
		assert.GreaterOrEqual(t, coef, 1e-4)
		assert.LessOrEqual(t, coef, 1.0)

		assert.GreaterOrEqual(t, u.EntropyCoefficient().Value(), 1e-4)
		assert.LessOrEqual(t, u.EntropyCoefficient().Value(), 1.0)
	})

	t.Run("Versioned rollouts report staleness diagnostics", func(t *testing.T) {
		n := 4
		cfg := rollout.StorageConfig{
			Observations:   make([][]float64, n),
			Masks:          []float64{1, 1, 1, 1},
			Actions:        make([][]float64, n),
			ActionLogProbs: make([]float64, n),
			ValuePreds:     make([]float64, n),
			Returns:        []float64{1, -1, 0.5, -0.5},
			IsCoeffs:       []float64{1, 1, 0.5, 2},
			IsStale:        []bool{false, true, false, false},
			PolicyVersions: []int64{9, 8, 10, 10},
			PolicyVersion:  10,
			Seed:           1,
		}
		for i := 0; i < n; i++ {
			cfg.Observations[i] = []float64{0, 0}
			cfg.Actions[i] = []float64{float64(i % 2)}
			cfg.ActionLogProbs[i] = -math.Log(2)
		}
		s, err := rollout.NewStorage(cfg)
		require.NoError(t, err)

		u, err := learner.NewPPO(policy.NewLinearCategorical(2, 2), baseConfig(), learner.Deps{})
		require.NoError(t, err)

		report, err := u.Update(context.Background(), s)
		require.NoError(t, err)

		assert.InDelta(t, 0.25, report[types.MetricFractionStale], 1e-12)
		assert.InDelta(t, 0.5, report[types.MetricISCoeffsMin], 1e-12)
		assert.InDelta(t, 2.0, report[types.MetricISCoeffsMax], 1e-12)
		assert.InDelta(t, 0.0, report[types.MetricPolicyVersionDiffMin], 1e-12)
		assert.InDelta(t, 2.0, report[types.MetricPolicyVersionDiffMax], 1e-12)
	})

	t.Run("Auxiliary task diagnostics surface in the report", func(t *testing.T) {
		p := policy.NewLinearCategorical(2, 2, policy.NewReturnPredictor("return_pred", 2))
		u, err := learner.NewPPO(p, baseConfig(), learner.Deps{})
		require.NoError(t, err)

		report, err := u.Update(context.Background(), categoricalStorage(t, []float64{1, -1}))
		require.NoError(t, err)

		// zero-init head against targets {1, -1}
		assert.InDelta(t, 1.0, report[types.AuxMetricKey("return_pred", "loss")], 1e-9)
	})

	t.Run("Aborted updates release the minibatch producer", func(t *testing.T) {
		cfg := baseConfig()
		cfg.NumMiniBatch = 2

		u, err := learner.NewPPO(&brokenPolicy{policy.NewLinearCategorical(2, 2)}, cfg, learner.Deps{})
		require.NoError(t, err)

		s := categoricalStorage(t, []float64{1, -1, 0.5, -0.5})
		before := runtime.NumGoroutine()

		for i := 0; i < 25; i++ {
			_, err := u.Update(context.Background(), s)
			require.Error(t, err)
		}

		// give the cancelled producers a moment to exit
		after := runtime.NumGoroutine()
		for i := 0; i < 100 && after > before+2; i++ {
			time.Sleep(10 * time.Millisecond)
			after = runtime.NumGoroutine()
		}
		assert.LessOrEqual(t, after, before+2)
	})

	t.Run("Oversized minibatch count aborts the update", func(t *testing.T) {
		cfg := baseConfig()
		cfg.NumMiniBatch = 8

		u, err := learner.NewPPO(policy.NewLinearCategorical(2, 2), cfg, learner.Deps{})
		require.NoError(t, err)

		_, err = u.Update(context.Background(), categoricalStorage(t, []float64{1, -1}))
		require.Error(t, err)
		assert.Equal(t, errors.ErrCfgOutOfRange.Code, errors.GetCode(err))
	})
}

// TestResumeState tests checkpoint capture and restore
func TestResumeState(t *testing.T) {
	newUpdater := func(t *testing.T) learner.Updater {
		u, err := learner.NewPPO(policy.NewLinearCategorical(2, 2), baseConfig(), learner.Deps{})
		require.NoError(t, err)
		return u
	}

	t.Run("Round trip preserves the optimizer state", func(t *testing.T) {
		u := newUpdater(t)
		_, err := u.Update(context.Background(), categoricalStorage(t, []float64{1, -1, 0.5, -0.5}))
		require.NoError(t, err)

		state := u.ResumeState()
		restored := newUpdater(t)
		require.NoError(t, restored.LoadResumeState(state))
		assert.Equal(t, state, restored.ResumeState())
	})

	t.Run("State without optimizer key keeps a fresh optimizer", func(t *testing.T) {
		u := newUpdater(t)
		require.NoError(t, u.LoadResumeState(learner.ResumeState{}))
	})

	t.Run("File round trip through YAML", func(t *testing.T) {
		u := newUpdater(t)
		_, err := u.Update(context.Background(), categoricalStorage(t, []float64{1, -1}))
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "ckpt.yaml")
		state := u.ResumeState()
		require.NoError(t, learner.SaveResumeState(path, state))

		loaded, err := learner.LoadResumeStateFile(path)
		require.NoError(t, err)
		assert.Equal(t, state, loaded)
	})

	t.Run("Missing checkpoint file reports not found", func(t *testing.T) {
		_, err := learner.LoadResumeStateFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})
}

//Personal.AI order the ending
