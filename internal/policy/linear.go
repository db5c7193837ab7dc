package policy

import (
	"math/rand"

	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/autograd"
	"github.com/openeeap/openppo/pkg/errors"
	"github.com/openeeap/openppo/pkg/types"
)

const log2Pi = 1.8378770664093453

// ============================================================================
// Shared Helpers
// ============================================================================

// dot computes w·x + b for a constant feature vector x.
func dot(w []*autograd.Value, x []float64, b *autograd.Value) *autograd.Value {
	terms := make([]*autograd.Value, 0, len(w)+1)
	for j, wj := range w {
		terms = append(terms, autograd.Scale(wj, x[j]))
	}
	terms = append(terms, b)
	return autograd.Sum(terms)
}

// newParams allocates n zero-initialized parameter leaves.
func newParams(n int) []*autograd.Value {
	out := make([]*autograd.Value, n)
	for i := range out {
		out[i] = autograd.NewParameter(0)
	}
	return out
}

// logSoftmax returns the log-probabilities for the given logits, shifted by
// the detached maximum for numerical stability.
func logSoftmax(logits []*autograd.Value) []*autograd.Value {
	maxVal := logits[0].Data
	for _, l := range logits[1:] {
		if l.Data > maxVal {
			maxVal = l.Data
		}
	}
	exps := make([]*autograd.Value, len(logits))
	for i, l := range logits {
		exps[i] = autograd.Exp(autograd.Shift(l, -maxVal))
	}
	logZ := autograd.Shift(autograd.Log(autograd.Sum(exps)), maxVal)
	out := make([]*autograd.Value, len(logits))
	for i, l := range logits {
		out[i] = autograd.Sub(l, logZ)
	}
	return out
}

// categoricalEntropy returns -sum(p * log p) over the given log-probs.
func categoricalEntropy(logProbs []*autograd.Value) *autograd.Value {
	terms := make([]*autograd.Value, len(logProbs))
	for i, lp := range logProbs {
		terms[i] = autograd.Mul(autograd.Exp(lp), lp)
	}
	return autograd.Neg(autograd.Sum(terms))
}

// ============================================================================
// Linear Categorical Policy
// ============================================================================

// LinearCategorical is a linear actor-critic over a discrete action space.
// Weights start at zero, which yields a uniform action distribution and a
// zero value estimate; tests rely on that deterministic starting point.
type LinearCategorical struct {
	obsDim     int
	numActions int

	actorW  [][]*autograd.Value
	actorB  []*autograd.Value
	criticW []*autograd.Value
	criticB *autograd.Value

	aux []AuxModule
}

// NewLinearCategorical creates a zero-initialized categorical policy.
func NewLinearCategorical(obsDim, numActions int, aux ...AuxModule) *LinearCategorical {
	p := &LinearCategorical{
		obsDim:     obsDim,
		numActions: numActions,
		actorW:     make([][]*autograd.Value, numActions),
		actorB:     newParams(numActions),
		criticW:    newParams(obsDim),
		criticB:    autograd.NewParameter(0),
		aux:        aux,
	}
	for k := range p.actorW {
		p.actorW[k] = newParams(obsDim)
	}
	return p
}

// InitRandom perturbs the actor and critic weights with small Gaussian
// noise drawn from rng.
func (p *LinearCategorical) InitRandom(rng *rand.Rand, scale float64) {
	for _, row := range p.actorW {
		for _, w := range row {
			w.Data = rng.NormFloat64() * scale
		}
	}
	for _, w := range p.criticW {
		w.Data = rng.NormFloat64() * scale
	}
}

// EvaluateActions re-evaluates the stored actions of batch
func (p *LinearCategorical) EvaluateActions(batch *rollout.Batch) (*EvalResult, error) {
	n := batch.Size()
	res := &EvalResult{
		Values:         make([]*autograd.Value, n),
		ActionLogProbs: make([]*autograd.Value, n),
		Entropies:      make([]*autograd.Value, n),
		AuxLosses:      make(map[string]*AuxLossResult),
	}

	for i := 0; i < n; i++ {
		obs := batch.Observations[i]
		if len(obs) != p.obsDim {
			return nil, errors.NewFromCode(errors.ErrLearnShapeMismatch).
				WithDetails("field", "observations").
				WithDetails("expected", p.obsDim).
				WithDetails("got", len(obs))
		}

		logits := make([]*autograd.Value, p.numActions)
		for k := 0; k < p.numActions; k++ {
			logits[k] = dot(p.actorW[k], obs, p.actorB[k])
		}
		logProbs := logSoftmax(logits)

		a := int(batch.Actions[i][0])
		if a < 0 || a >= p.numActions {
			return nil, errors.NewFromCode(errors.ErrLearnEvaluationFailed).
				WithDetails("action", a).
				WithDetails("num_actions", p.numActions)
		}

		res.Values[i] = dot(p.criticW, obs, p.criticB)
		res.ActionLogProbs[i] = logProbs[a]
		res.Entropies[i] = categoricalEntropy(logProbs)
	}

	for _, m := range p.aux {
		r, err := m.Loss(batch)
		if err != nil {
			return nil, err
		}
		res.AuxLosses[m.Name()] = r
	}
	return res, nil
}

// PolicyParameters returns the actor-critic parameter group
func (p *LinearCategorical) PolicyParameters() []*autograd.Value {
	out := make([]*autograd.Value, 0, p.numActions*(p.obsDim+1)+p.obsDim+1)
	for k := range p.actorW {
		out = append(out, p.actorW[k]...)
	}
	out = append(out, p.actorB...)
	out = append(out, p.criticW...)
	out = append(out, p.criticB)
	return out
}

// AuxLossParameters returns the named auxiliary parameter groups
func (p *LinearCategorical) AuxLossParameters() map[string][]*autograd.Value {
	return auxParamGroups(p.aux)
}

// Parameters returns every trainable parameter in stable order
func (p *LinearCategorical) Parameters() []*autograd.Value {
	out := p.PolicyParameters()
	for _, m := range p.aux {
		out = append(out, m.Parameters()...)
	}
	return out
}

// NumActions reports the action dimensionality
func (p *LinearCategorical) NumActions() (int, bool) {
	return p.numActions, true
}

// DistributionType reports the categorical family
func (p *LinearCategorical) DistributionType() types.DistributionType {
	return types.DistributionCategorical
}

// ============================================================================
// Linear Gaussian Policy
// ============================================================================

// LinearGaussian is a linear actor-critic over a continuous action space
// with a state-independent diagonal covariance.
type LinearGaussian struct {
	obsDim    int
	actionDim int

	actorW  [][]*autograd.Value
	actorB  []*autograd.Value
	logStd  []*autograd.Value
	criticW []*autograd.Value
	criticB *autograd.Value

	aux []AuxModule
}

// NewLinearGaussian creates a zero-initialized Gaussian policy with unit
// standard deviation.
func NewLinearGaussian(obsDim, actionDim int, aux ...AuxModule) *LinearGaussian {
	p := &LinearGaussian{
		obsDim:    obsDim,
		actionDim: actionDim,
		actorW:    make([][]*autograd.Value, actionDim),
		actorB:    newParams(actionDim),
		logStd:    newParams(actionDim),
		criticW:   newParams(obsDim),
		criticB:   autograd.NewParameter(0),
		aux:       aux,
	}
	for k := range p.actorW {
		p.actorW[k] = newParams(obsDim)
	}
	return p
}

// EvaluateActions re-evaluates the stored actions of batch
func (p *LinearGaussian) EvaluateActions(batch *rollout.Batch) (*EvalResult, error) {
	n := batch.Size()
	res := &EvalResult{
		Values:         make([]*autograd.Value, n),
		ActionLogProbs: make([]*autograd.Value, n),
		Entropies:      make([]*autograd.Value, n),
		AuxLosses:      make(map[string]*AuxLossResult),
	}

	// State-independent covariance: every sample shares one entropy node
	entTerms := make([]*autograd.Value, p.actionDim)
	for k, s := range p.logStd {
		entTerms[k] = autograd.Shift(s, 0.5*(log2Pi+1))
	}
	entropy := autograd.Sum(entTerms)

	for i := 0; i < n; i++ {
		obs := batch.Observations[i]
		if len(obs) != p.obsDim {
			return nil, errors.NewFromCode(errors.ErrLearnShapeMismatch).
				WithDetails("field", "observations").
				WithDetails("expected", p.obsDim).
				WithDetails("got", len(obs))
		}
		act := batch.Actions[i]
		if len(act) != p.actionDim {
			return nil, errors.NewFromCode(errors.ErrLearnShapeMismatch).
				WithDetails("field", "actions").
				WithDetails("expected", p.actionDim).
				WithDetails("got", len(act))
		}

		terms := make([]*autograd.Value, p.actionDim)
		for k := 0; k < p.actionDim; k++ {
			mean := dot(p.actorW[k], obs, p.actorB[k])
			z := autograd.Mul(
				autograd.Sub(autograd.V(act[k]), mean),
				autograd.Exp(autograd.Neg(p.logStd[k])),
			)
			terms[k] = autograd.Add(p.logStd[k], autograd.Scale(autograd.Mul(z, z), 0.5))
		}
		logProb := autograd.Shift(
			autograd.Neg(autograd.Sum(terms)),
			-0.5*float64(p.actionDim)*log2Pi,
		)

		res.Values[i] = dot(p.criticW, obs, p.criticB)
		res.ActionLogProbs[i] = logProb
		res.Entropies[i] = entropy
	}

	for _, m := range p.aux {
		r, err := m.Loss(batch)
		if err != nil {
			return nil, err
		}
		res.AuxLosses[m.Name()] = r
	}
	return res, nil
}

// PolicyParameters returns the actor-critic parameter group
func (p *LinearGaussian) PolicyParameters() []*autograd.Value {
	out := make([]*autograd.Value, 0, p.actionDim*(p.obsDim+2)+p.obsDim+1)
	for k := range p.actorW {
		out = append(out, p.actorW[k]...)
	}
	out = append(out, p.actorB...)
	out = append(out, p.logStd...)
	out = append(out, p.criticW...)
	out = append(out, p.criticB)
	return out
}

// AuxLossParameters returns the named auxiliary parameter groups
func (p *LinearGaussian) AuxLossParameters() map[string][]*autograd.Value {
	return auxParamGroups(p.aux)
}

// Parameters returns every trainable parameter in stable order
func (p *LinearGaussian) Parameters() []*autograd.Value {
	out := p.PolicyParameters()
	for _, m := range p.aux {
		out = append(out, m.Parameters()...)
	}
	return out
}

// NumActions reports the action dimensionality
func (p *LinearGaussian) NumActions() (int, bool) {
	return p.actionDim, true
}

// DistributionType reports the Gaussian family
func (p *LinearGaussian) DistributionType() types.DistributionType {
	return types.DistributionGaussian
}

// SetLogStd overwrites the shared log standard deviation; handy for
// constructing policies with a known entropy.
func (p *LinearGaussian) SetLogStd(v float64) {
	for _, s := range p.logStd {
		s.Data = v
	}
}

//Personal.AI order the ending
