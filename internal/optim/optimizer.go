// Package optim provides first-order gradient optimizers for openppo.
// Optimizers operate on autograd parameter leaves and treat the gradient
// as optional: parameters without a present gradient are skipped entirely,
// so a partial backward pass never disturbs untouched parameters.
package optim

import (
	"math"

	"github.com/openeeap/openppo/pkg/autograd"
)

// ============================================================================
// Optimizer Interface
// ============================================================================

// Optimizer is the black-box first-order update contract. Implementations
// must skip parameters whose gradient is absent and must round-trip their
// internal state through StateDict/LoadStateDict.
type Optimizer interface {
	// ZeroGrad discards the gradient of every managed parameter
	ZeroGrad()

	// Step applies one in-place update using the present gradients
	Step() error

	// StateDict returns a serializable snapshot of the optimizer state
	StateDict() State

	// LoadStateDict restores a previously captured snapshot
	LoadStateDict(state State) error

	// Parameters returns the managed parameter leaves in stable order
	Parameters() []*autograd.Value
}

// State is a serializable optimizer snapshot. Fields unused by a given
// algorithm stay at their zero value.
type State struct {
	Algorithm string    `json:"algorithm" yaml:"algorithm"`
	LR        float64   `json:"lr" yaml:"lr"`
	Eps       float64   `json:"eps" yaml:"eps"`
	Beta1     float64   `json:"beta1" yaml:"beta1"`
	Beta2     float64   `json:"beta2" yaml:"beta2"`
	Steps     []int     `json:"steps" yaml:"steps"`
	ExpAvg    []float64 `json:"exp_avg" yaml:"exp_avg"`
	ExpAvgSq  []float64 `json:"exp_avg_sq" yaml:"exp_avg_sq"`
}

// ============================================================================
// Gradient Clipping
// ============================================================================

// ClipGradNorm rescales the gradients of params so their global L2 norm does
// not exceed maxNorm, and returns the pre-clip norm. Parameters without a
// present gradient do not contribute. A non-positive maxNorm disables
// clipping while still reporting the norm.
func ClipGradNorm(params []*autograd.Value, maxNorm float64) float64 {
	total := 0.0
	for _, p := range params {
		if !p.HasGrad() {
			continue
		}
		total += p.Grad * p.Grad
	}
	norm := math.Sqrt(total)

	if maxNorm <= 0 || norm <= maxNorm {
		return norm
	}

	scale := maxNorm / (norm + 1e-6)
	for _, p := range params {
		if !p.HasGrad() {
			continue
		}
		p.Grad *= scale
	}
	return norm
}

//Personal.AI order the ending
