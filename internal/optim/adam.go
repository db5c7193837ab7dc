package optim

import (
	"math"

	"github.com/openeeap/openppo/pkg/autograd"
	"github.com/openeeap/openppo/pkg/errors"
)

// ============================================================================
// Adam Optimizer
// ============================================================================

const (
	defaultBeta1 = 0.9
	defaultBeta2 = 0.999
)

// adamOptimizer implements Adam with per-parameter step counts so that
// skipped parameters keep unbiased moment corrections.
type adamOptimizer struct {
	params []*autograd.Value

	lr    float64
	eps   float64
	beta1 float64
	beta2 float64

	steps    []int
	expAvg   []float64
	expAvgSq []float64
}

// NewAdam creates an Adam optimizer over params with the given learning
// rate and denominator epsilon.
func NewAdam(params []*autograd.Value, lr, eps float64) Optimizer {
	return &adamOptimizer{
		params:   params,
		lr:       lr,
		eps:      eps,
		beta1:    defaultBeta1,
		beta2:    defaultBeta2,
		steps:    make([]int, len(params)),
		expAvg:   make([]float64, len(params)),
		expAvgSq: make([]float64, len(params)),
	}
}

// ZeroGrad discards the gradient of every managed parameter
func (o *adamOptimizer) ZeroGrad() {
	for _, p := range o.params {
		p.ZeroGrad()
	}
}

// Step applies one Adam update to every parameter holding a gradient
func (o *adamOptimizer) Step() error {
	for i, p := range o.params {
		if !p.HasGrad() {
			continue
		}
		g := p.Grad
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return errors.NewFromCode(errors.ErrOptStepFailed).
				WithDetails("reason", "non-finite gradient").
				WithDetails("param_index", i)
		}

		o.steps[i]++
		t := float64(o.steps[i])

		o.expAvg[i] = o.beta1*o.expAvg[i] + (1-o.beta1)*g
		o.expAvgSq[i] = o.beta2*o.expAvgSq[i] + (1-o.beta2)*g*g

		mHat := o.expAvg[i] / (1 - math.Pow(o.beta1, t))
		vHat := o.expAvgSq[i] / (1 - math.Pow(o.beta2, t))

		p.Data -= o.lr * mHat / (math.Sqrt(vHat) + o.eps)
	}
	return nil
}

// StateDict returns a serializable snapshot of the optimizer state
func (o *adamOptimizer) StateDict() State {
	state := State{
		Algorithm: "adam",
		LR:        o.lr,
		Eps:       o.eps,
		Beta1:     o.beta1,
		Beta2:     o.beta2,
		Steps:     make([]int, len(o.steps)),
		ExpAvg:    make([]float64, len(o.expAvg)),
		ExpAvgSq:  make([]float64, len(o.expAvgSq)),
	}
	copy(state.Steps, o.steps)
	copy(state.ExpAvg, o.expAvg)
	copy(state.ExpAvgSq, o.expAvgSq)
	return state
}

// LoadStateDict restores a previously captured snapshot
func (o *adamOptimizer) LoadStateDict(state State) error {
	if state.Algorithm != "" && state.Algorithm != "adam" {
		return errors.NewFromCode(errors.ErrOptStateInvalid).
			WithDetails("algorithm", state.Algorithm)
	}
	if len(state.Steps) != len(o.params) ||
		len(state.ExpAvg) != len(o.params) ||
		len(state.ExpAvgSq) != len(o.params) {
		return errors.NewFromCode(errors.ErrOptStateInvalid).
			WithDetails("expected", len(o.params)).
			WithDetails("steps", len(state.Steps)).
			WithDetails("exp_avg", len(state.ExpAvg)).
			WithDetails("exp_avg_sq", len(state.ExpAvgSq))
	}

	o.lr = state.LR
	o.eps = state.Eps
	if state.Beta1 > 0 {
		o.beta1 = state.Beta1
	}
	if state.Beta2 > 0 {
		o.beta2 = state.Beta2
	}
	copy(o.steps, state.Steps)
	copy(o.expAvg, state.ExpAvg)
	copy(o.expAvgSq, state.ExpAvgSq)
	return nil
}

// Parameters returns the managed parameter leaves in stable order
func (o *adamOptimizer) Parameters() []*autograd.Value {
	return o.params
}

//Personal.AI order the ending
