package learner_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/openppo/internal/learner"
	"github.com/openeeap/openppo/internal/rollout"
)

// storageWith builds a minimal rollout from returns and value predictions.
func storageWith(t *testing.T, returns, valuePreds []float64) *rollout.Storage {
	t.Helper()

	n := len(returns)
	cfg := rollout.StorageConfig{
		Observations:   make([][]float64, n),
		Masks:          make([]float64, n),
		Actions:        make([][]float64, n),
		ActionLogProbs: make([]float64, n),
		ValuePreds:     valuePreds,
		Returns:        returns,
		Seed:           1,
	}
	for i := 0; i < n; i++ {
		cfg.Observations[i] = []float64{0}
		cfg.Masks[i] = 1
		cfg.Actions[i] = []float64{0}
	}
	s, err := rollout.NewStorage(cfg)
	require.NoError(t, err)
	return s
}

// TestAdvantageEstimator tests the advantage signal
func TestAdvantageEstimator(t *testing.T) {
	t.Run("Plain advantages are returns minus value predictions", func(t *testing.T) {
		s := storageWith(t, []float64{1, 2, 3}, []float64{0.5, 0.5, 0.5})

		adv := learner.NewAdvantageEstimator(false).Compute(s)

		assert.Equal(t, []float64{0.5, 1.5, 2.5}, adv)
		// the rollout is never mutated
		assert.Equal(t, []float64{1, 2, 3}, s.Returns())
	})

	t.Run("Normalization yields zero mean and unit variance", func(t *testing.T) {
		s := storageWith(t, []float64{1, 2, 3, 4}, []float64{0, 0, 0, 0})

		adv := learner.NewAdvantageEstimator(true).Compute(s)

		mean := 0.0
		for _, a := range adv {
			mean += a
		}
		mean /= float64(len(adv))
		assert.InDelta(t, 0.0, mean, 1e-12)

		sq := 0.0
		for _, a := range adv {
			sq += (a - mean) * (a - mean)
		}
		variance := sq / float64(len(adv)-1)
		// the epsilon guard pulls the variance slightly under 1
		assert.InDelta(t, 1.0, variance, 1e-4)
	})

	t.Run("Non-finite entries are excluded from the statistics", func(t *testing.T) {
		s := storageWith(t, []float64{1, 3, math.Inf(1)}, []float64{0, 0, 0})

		adv := learner.NewAdvantageEstimator(true).Compute(s)

		// stats come from the finite pair {1, 3}: mean 2, sample variance 2
		scale := 1 / math.Sqrt(2+1e-5)
		assert.InDelta(t, -scale, adv[0], 1e-9)
		assert.InDelta(t, scale, adv[1], 1e-9)
		assert.True(t, math.IsInf(adv[2], 1))
	})

	t.Run("A single finite entry degenerates to zero variance", func(t *testing.T) {
		s := storageWith(t, []float64{5, math.NaN()}, []float64{0, 0})

		adv := learner.NewAdvantageEstimator(true).Compute(s)

		assert.InDelta(t, 0.0, adv[0], 1e-12)
		assert.True(t, math.IsNaN(adv[1]))
	})
}

//Personal.AI order the ending
