package learner_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/openppo/internal/learner"
	"github.com/openeeap/openppo/internal/policy"
	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/autograd"
	"github.com/openeeap/openppo/pkg/errors"
	"github.com/openeeap/openppo/pkg/types"
)

// lossBatch builds an n-sample minibatch with zeroed tensors.
func lossBatch(n int) *rollout.Batch {
	b := &rollout.Batch{
		Observations:   make([][]float64, n),
		Masks:          make([]float64, n),
		Actions:        make([][]float64, n),
		ActionLogProbs: make([]float64, n),
		ValuePreds:     make([]float64, n),
		Returns:        make([]float64, n),
		Advantages:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		b.Observations[i] = []float64{0}
		b.Masks[i] = 1
		b.Actions[i] = []float64{0}
	}
	return b
}

// constResult builds an evaluation result over constant nodes.
func constResult(values, logProbs, entropies []float64) *policy.EvalResult {
	res := &policy.EvalResult{
		Values:         make([]*autograd.Value, len(values)),
		ActionLogProbs: make([]*autograd.Value, len(logProbs)),
		Entropies:      make([]*autograd.Value, len(entropies)),
		AuxLosses:      make(map[string]*policy.AuxLossResult),
	}
	for i := range values {
		res.Values[i] = autograd.V(values[i])
	}
	for i := range logProbs {
		res.ActionLogProbs[i] = autograd.V(logProbs[i])
	}
	for i := range entropies {
		res.Entropies[i] = autograd.V(entropies[i])
	}
	return res
}

func fixedAssembler(clipParam, valueLossCoef, entropyCoef float64, clipValue bool) *learner.LossAssembler {
	return learner.NewLossAssembler(
		clipParam, valueLossCoef, 1.0, 0, clipValue, false,
		learner.NewFixedEntropyCoefficient(entropyCoef),
	)
}

// TestAssemble tests total-loss assembly
func TestAssemble(t *testing.T) {
	t.Run("Matching log-probs give unit ratios", func(t *testing.T) {
		a := fixedAssembler(0.2, 0.5, 0.01, false)

		b := lossBatch(2)
		b.ActionLogProbs = []float64{-math.Log(2), -math.Log(2)}
		b.Advantages = []float64{1, -2}

		res := constResult(
			[]float64{0, 0},
			[]float64{-math.Log(2), -math.Log(2)},
			[]float64{0.5, 0.5},
		)

		out, err := a.Assemble(res, nil, b)
		require.NoError(t, err)

		// unit ratio collapses the surrogate to -mean(advantages)
		assert.InDelta(t, 0.5, out.ActionLoss, 1e-12)
		assert.InDelta(t, 1.0, out.Ratios[0], 1e-12)
		assert.InDelta(t, 1.0, out.Ratios[1], 1e-12)
		assert.InDelta(t, 0.0, out.ValueLoss, 1e-12)
		assert.InDelta(t, 0.5, out.DistEntropy, 1e-12)
		assert.InDelta(t, 0.5-0.01*0.5, out.Total.Data, 1e-12)
		assert.True(t, math.IsNaN(out.AuxEntropy))
		assert.Equal(t, 0.0, a.FractionClipped(out.Ratios))
	})

	t.Run("Mismatched result shapes are rejected", func(t *testing.T) {
		a := fixedAssembler(0.2, 0.5, 0.01, false)

		res := constResult([]float64{0}, []float64{0}, []float64{0})
		_, err := a.Assemble(res, nil, lossBatch(2))

		require.Error(t, err)
		assert.Equal(t, errors.ErrLearnShapeMismatch.Code, errors.GetCode(err))
	})
}

// TestFractionClipped tests the ratio clipping diagnostic
func TestFractionClipped(t *testing.T) {
	a := fixedAssembler(0.2, 0.5, 0, false)

	t.Run("Boundary ratios are not counted", func(t *testing.T) {
		frac := a.FractionClipped([]float64{0.8, 1.2, 1.2000001, 0.79, 1.0})
		assert.InDelta(t, 2.0/5.0, frac, 1e-12)
	})

	t.Run("Empty input yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, a.FractionClipped(nil))
	})
}

// TestValueClipping tests the trust-region value loss
func TestValueClipping(t *testing.T) {
	t.Run("Small deviation keeps the live value node", func(t *testing.T) {
		a := fixedAssembler(0.2, 0.5, 0, true)

		b := lossBatch(1)
		b.Returns[0] = 1.0

		value := autograd.NewParameter(0.1)
		res := constResult(nil, []float64{0}, []float64{0})
		res.Values = []*autograd.Value{value}

		out, err := a.Assemble(res, nil, b)
		require.NoError(t, err)

		assert.InDelta(t, 0.5*0.9*0.9, out.ValueLoss, 1e-12)

		autograd.Backward(out.Total)
		require.True(t, value.HasGrad())
		// value_loss_coef * (v - ret)
		assert.InDelta(t, 0.5*(0.1-1.0), value.Grad, 1e-12)
	})

	t.Run("Large deviation detaches the clipped candidate", func(t *testing.T) {
		a := fixedAssembler(0.2, 0.5, 0, true)

		b := lossBatch(1)
		b.Returns[0] = 1.0

		value := autograd.NewParameter(0.5)
		res := constResult(nil, []float64{0}, []float64{0})
		res.Values = []*autograd.Value{value}

		out, err := a.Assemble(res, nil, b)
		require.NoError(t, err)

		// loss built on the clipped constant old_pred + clip = 0.2
		assert.InDelta(t, 0.5*0.8*0.8, out.ValueLoss, 1e-12)
		// diagnostics still report the pre-clip prediction
		assert.InDelta(t, 0.5, out.ValuePreds[0], 1e-12)

		autograd.Backward(out.Total)
		assert.False(t, value.HasGrad())
	})

	t.Run("Disabled clipping always keeps the live node", func(t *testing.T) {
		a := fixedAssembler(0.2, 0.5, 0, false)

		b := lossBatch(1)
		b.Returns[0] = 1.0

		value := autograd.NewParameter(0.5)
		res := constResult(nil, []float64{0}, []float64{0})
		res.Values = []*autograd.Value{value}

		out, err := a.Assemble(res, nil, b)
		require.NoError(t, err)
		assert.InDelta(t, 0.5*0.5*0.5, out.ValueLoss, 1e-12)

		autograd.Backward(out.Total)
		assert.True(t, value.HasGrad())
	})
}

// TestImportanceWeighting tests the is_coeffs reduction
func TestImportanceWeighting(t *testing.T) {
	a := fixedAssembler(0.2, 0.5, 0, false)

	b := lossBatch(2)
	// coefficients above one are capped before weighting
	b.IsCoeffs = []float64{2.0, 0.5}

	res := constResult([]float64{0, 0}, []float64{0, 0}, []float64{1, 3})

	out, err := a.Assemble(res, nil, b)
	require.NoError(t, err)

	// (1*1 + 0.5*3) / 2
	assert.InDelta(t, 1.25, out.DistEntropy, 1e-12)
	assert.InDelta(t, 0.0, out.ActionLoss, 1e-12)
}

// TestAuxiliaryLossPaths tests the legacy and weighted auxiliary paths
func TestAuxiliaryLossPaths(t *testing.T) {
	addAux := func(res *policy.EvalResult) {
		res.AuxLosses["foo"] = &policy.AuxLossResult{
			Loss:    autograd.V(2.0),
			Metrics: map[string]float64{"err": 3.0},
		}
	}

	t.Run("Legacy path sums at weight one", func(t *testing.T) {
		a := learner.NewLossAssembler(0.2, 0.5, 0.25, 0, false, false,
			learner.NewFixedEntropyCoefficient(0))

		res := constResult([]float64{0}, []float64{0}, []float64{0})
		addAux(res)

		out, err := a.Assemble(res, nil, lossBatch(1))
		require.NoError(t, err)

		assert.InDelta(t, 2.0, out.Total.Data, 1e-12)
		assert.Equal(t, 3.0, out.AuxMetrics[types.AuxMetricKey("foo", "err")])
	})

	t.Run("Weighted path scales by aux_loss_coef", func(t *testing.T) {
		a := learner.NewLossAssembler(0.2, 0.5, 0.25, 0, false, true,
			learner.NewFixedEntropyCoefficient(0))

		res := constResult([]float64{0}, []float64{0}, []float64{0})
		addAux(res)

		out, err := a.Assemble(res, nil, lossBatch(1))
		require.NoError(t, err)

		assert.InDelta(t, 0.5, out.Total.Data, 1e-12)
		assert.Equal(t, 2.0, out.AuxMetrics[types.AuxMetricKey("foo", "loss")])
	})

	t.Run("Configured weighting is inert without aux modules", func(t *testing.T) {
		a := learner.NewLossAssembler(0.2, 0.5, 0.25, 0, false, true,
			learner.NewFixedEntropyCoefficient(0))

		res := constResult([]float64{0}, []float64{0}, []float64{0})
		out, err := a.Assemble(res, nil, lossBatch(1))
		require.NoError(t, err)

		assert.InDelta(t, 0.0, out.Total.Data, 1e-12)
		assert.Empty(t, out.AuxMetrics)
	})

	t.Run("Legacy metric fields survive only on the legacy path", func(t *testing.T) {
		weighted := learner.NewLossAssembler(0.2, 0.5, 0.25, 0, false, true,
			learner.NewFixedEntropyCoefficient(0))

		res := constResult([]float64{0}, []float64{0}, []float64{0})
		addAux(res)

		out, err := weighted.Assemble(res, nil, lossBatch(1))
		require.NoError(t, err)

		// the weighted path records only the loss field
		_, hasErr := out.AuxMetrics[types.AuxMetricKey("foo", "err")]
		assert.False(t, hasErr)
		assert.Equal(t, 2.0, out.AuxMetrics[types.AuxMetricKey("foo", "loss")])
	})

	t.Run("Auxiliary entropy joins under its own coefficient", func(t *testing.T) {
		a := learner.NewLossAssembler(0.2, 0.5, 1.0, 0.05, false, false,
			learner.NewFixedEntropyCoefficient(0))

		res := constResult([]float64{0}, []float64{0}, []float64{0})
		out, err := a.Assemble(res, autograd.V(0.8), lossBatch(1))
		require.NoError(t, err)

		assert.InDelta(t, 0.05*0.8, out.Total.Data, 1e-12)
		assert.InDelta(t, 0.8, out.AuxEntropy, 1e-12)
	})
}

//Personal.AI order the ending
