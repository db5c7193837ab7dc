package policy_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/openppo/internal/policy"
	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/errors"
	"github.com/openeeap/openppo/pkg/types"
)

const log2Pi = 1.8378770664093453

// smallBatch builds a two-sample minibatch with the given actions.
func smallBatch(actions [][]float64) *rollout.Batch {
	n := len(actions)
	b := &rollout.Batch{
		Observations:   make([][]float64, n),
		Masks:          make([]float64, n),
		Actions:        actions,
		ActionLogProbs: make([]float64, n),
		ValuePreds:     make([]float64, n),
		Returns:        make([]float64, n),
		Advantages:     make([]float64, n),
	}
	for i := range b.Observations {
		b.Observations[i] = []float64{0.5, -0.25, 1.0}
		b.Masks[i] = 1
		b.Returns[i] = float64(i)
	}
	return b
}

// TestLinearCategorical tests the zero-initialized discrete policy
func TestLinearCategorical(t *testing.T) {
	p := policy.NewLinearCategorical(3, 4)

	t.Run("Zero init yields the uniform distribution", func(t *testing.T) {
		res, err := p.EvaluateActions(smallBatch([][]float64{{0}, {3}}))
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			assert.InDelta(t, -math.Log(4), res.ActionLogProbs[i].Data, 1e-12)
			assert.InDelta(t, math.Log(4), res.Entropies[i].Data, 1e-12)
			assert.InDelta(t, 0.0, res.Values[i].Data, 1e-12)
		}
	})

	t.Run("Parameter counts", func(t *testing.T) {
		// 4 actions * (3 weights + 1 bias) + 3 critic weights + 1 critic bias
		assert.Len(t, p.PolicyParameters(), 4*4+3+1)
		assert.Len(t, p.Parameters(), len(p.PolicyParameters()))
		assert.Empty(t, p.AuxLossParameters())
	})

	t.Run("Capability reporting", func(t *testing.T) {
		k, ok := p.NumActions()
		assert.True(t, ok)
		assert.Equal(t, 4, k)
		assert.Equal(t, types.DistributionCategorical, p.DistributionType())
		assert.Equal(t, types.PolicyVariantPlain, policy.VariantOf(p))
	})

	t.Run("Out of range action fails evaluation", func(t *testing.T) {
		_, err := p.EvaluateActions(smallBatch([][]float64{{0}, {4}}))
		require.Error(t, err)
		assert.Equal(t, errors.ErrLearnEvaluationFailed.Code, errors.GetCode(err))
	})

	t.Run("Observation width mismatch fails evaluation", func(t *testing.T) {
		b := smallBatch([][]float64{{0}})
		b.Observations[0] = []float64{1}
		_, err := p.EvaluateActions(b)
		require.Error(t, err)
		assert.Equal(t, errors.ErrLearnShapeMismatch.Code, errors.GetCode(err))
	})
}

// TestLinearGaussian tests the zero-initialized continuous policy
func TestLinearGaussian(t *testing.T) {
	t.Run("Standard normal log-probability at zero init", func(t *testing.T) {
		p := policy.NewLinearGaussian(3, 2)
		act := []float64{0.5, -1.0}
		res, err := p.EvaluateActions(smallBatch([][]float64{act, {0, 0}}))
		require.NoError(t, err)

		sumSq := act[0]*act[0] + act[1]*act[1]
		want := -0.5*sumSq - 0.5*2*log2Pi
		assert.InDelta(t, want, res.ActionLogProbs[0].Data, 1e-12)
		assert.InDelta(t, -0.5*2*log2Pi, res.ActionLogProbs[1].Data, 1e-12)
	})

	t.Run("Entropy is shared and shifts with the log std", func(t *testing.T) {
		p := policy.NewLinearGaussian(3, 2)
		res, err := p.EvaluateActions(smallBatch([][]float64{{0, 0}, {0, 0}}))
		require.NoError(t, err)

		base := 0.5 * 2 * (log2Pi + 1)
		assert.InDelta(t, base, res.Entropies[0].Data, 1e-12)
		// every sample points at the same node
		assert.Same(t, res.Entropies[0], res.Entropies[1])

		p.SetLogStd(0.3)
		res, err = p.EvaluateActions(smallBatch([][]float64{{0, 0}}))
		require.NoError(t, err)
		assert.InDelta(t, base+2*0.3, res.Entropies[0].Data, 1e-12)
	})

	t.Run("Parameter counts and capabilities", func(t *testing.T) {
		p := policy.NewLinearGaussian(3, 2)
		// 2 actions * (3 weights + 1 bias + 1 log std) + 3 critic weights + 1 bias
		assert.Len(t, p.PolicyParameters(), 2*5+3+1)

		k, ok := p.NumActions()
		assert.True(t, ok)
		assert.Equal(t, 2, k)
		assert.Equal(t, types.DistributionGaussian, p.DistributionType())
	})

	t.Run("Action width mismatch fails evaluation", func(t *testing.T) {
		p := policy.NewLinearGaussian(3, 2)
		_, err := p.EvaluateActions(smallBatch([][]float64{{0}}))
		require.Error(t, err)
		assert.Equal(t, errors.ErrLearnShapeMismatch.Code, errors.GetCode(err))
	})
}

// TestAttentiveGaussian tests the attentive variant
func TestAttentiveGaussian(t *testing.T) {
	p := policy.NewAttentiveGaussian(3, 2, 4, 5)

	t.Run("Variant dispatch", func(t *testing.T) {
		assert.Equal(t, types.PolicyVariantAttentive, policy.VariantOf(p))
	})

	t.Run("Zero init head entropy is uniform over heads", func(t *testing.T) {
		res, err := p.EvaluateActionsAttentive(smallBatch([][]float64{{0, 0}, {0, 0}}))
		require.NoError(t, err)

		assert.InDelta(t, math.Log(5), res.AuxEntropy.Data, 1e-12)
		require.Len(t, res.RecurrentFeatures, 2)
		assert.Len(t, res.RecurrentFeatures[0], 4)
	})

	t.Run("Attention head forms its own clipping group", func(t *testing.T) {
		groups := p.AuxLossParameters()
		head, ok := groups["attention_head"]
		require.True(t, ok)
		assert.Len(t, head, 5*4)

		// feature projection rides with the policy group
		assert.Len(t, p.PolicyParameters(), 2*5+3+1+4*3)
	})
}

// TestReturnPredictor tests the auxiliary regression head
func TestReturnPredictor(t *testing.T) {
	m := policy.NewReturnPredictor("return_pred", 3)

	b := smallBatch([][]float64{{0}, {0}})
	res, err := m.Loss(b)
	require.NoError(t, err)

	// zero-init head predicts 0; targets are 0 and 1
	assert.InDelta(t, 0.5, res.Loss.Data, 1e-12)
	assert.Equal(t, res.Loss.Data, res.Metrics["loss"])
	assert.Len(t, m.Parameters(), 4)

	t.Run("Attaches to a policy as an auxiliary group", func(t *testing.T) {
		p := policy.NewLinearCategorical(3, 2, m)
		groups := p.AuxLossParameters()
		require.Contains(t, groups, "return_pred")
		assert.Len(t, groups["return_pred"], 4)
		assert.Len(t, p.Parameters(), len(p.PolicyParameters())+4)
	})
}

//Personal.AI order the ending
