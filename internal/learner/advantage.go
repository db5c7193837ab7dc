// Package learner implements the policy-optimization core of openppo: a
// clipped-surrogate policy-gradient update with value clipping, adaptive
// entropy regularization, per-group gradient clipping, and synchronized
// stepping across distributed workers.
package learner

import (
	"math"

	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/types"
)

// epsNorm guards the advantage scale against degenerate variance.
const epsNorm = 1e-5

// ============================================================================
// Advantage Estimator
// ============================================================================

// AdvantageEstimator computes the advantage signal of a rollout, optionally
// standardizing it over the finite-valued subset.
type AdvantageEstimator struct {
	normalize bool
}

// NewAdvantageEstimator creates an estimator. With normalize set, computed
// advantages are shifted and scaled to zero mean and unit variance.
func NewAdvantageEstimator(normalize bool) *AdvantageEstimator {
	return &AdvantageEstimator{normalize: normalize}
}

// Compute returns returns - value_preds for every sample of the rollout.
// When normalizing, the mean and sample variance are taken over the finite
// entries only; non-finite entries still receive the shift and scale and
// stay non-finite for downstream masks to filter. The rollout is never
// mutated.
func (e *AdvantageEstimator) Compute(rollouts *rollout.Storage) []float64 {
	returns := rollouts.Returns()
	valuePreds := rollouts.ValuePreds()

	advantages := make([]float64, len(returns))
	for i := range returns {
		advantages[i] = returns[i] - valuePreds[i]
	}

	if !e.normalize {
		return advantages
	}

	mean, variance := finiteMeanVar(advantages)
	scale := 1 / math.Sqrt(variance+epsNorm)
	for i := range advantages {
		advantages[i] = (advantages[i] - mean) * scale
	}
	return advantages
}

// finiteMeanVar computes the mean and sample variance over the finite
// entries of values. Fewer than two finite entries yield zero variance.
func finiteMeanVar(values []float64) (float64, float64) {
	sum := 0.0
	count := 0
	for _, v := range values {
		if !types.IsFinite(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0, 0
	}
	mean := sum / float64(count)

	if count < 2 {
		return mean, 0
	}
	sq := 0.0
	for _, v := range values {
		if !types.IsFinite(v) {
			continue
		}
		d := v - mean
		sq += d * d
	}
	return mean, sq / float64(count-1)
}

//Personal.AI order the ending
