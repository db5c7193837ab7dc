package policy

import (
	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/autograd"
)

// ============================================================================
// Attentive Policy Variant
// ============================================================================

// AttentiveGaussian extends LinearGaussian with a recurrent feature
// projection and an auxiliary attention head whose entropy is penalized
// separately by the learner.
type AttentiveGaussian struct {
	*LinearGaussian

	featureDim int
	featureW   [][]*autograd.Value
	headW      [][]*autograd.Value
}

// NewAttentiveGaussian creates a zero-initialized attentive policy with a
// featureDim-sized recurrent feature projection and a numHeads-way
// auxiliary attention head.
func NewAttentiveGaussian(obsDim, actionDim, featureDim, numHeads int, aux ...AuxModule) *AttentiveGaussian {
	p := &AttentiveGaussian{
		LinearGaussian: NewLinearGaussian(obsDim, actionDim, aux...),
		featureDim:     featureDim,
		featureW:       make([][]*autograd.Value, featureDim),
		headW:          make([][]*autograd.Value, numHeads),
	}
	for k := range p.featureW {
		p.featureW[k] = newParams(obsDim)
	}
	for k := range p.headW {
		p.headW[k] = newParams(featureDim)
	}
	return p
}

// EvaluateActionsAttentive runs the extended evaluation, adding recurrent
// features and the mean attention-head entropy to the plain result.
func (p *AttentiveGaussian) EvaluateActionsAttentive(batch *rollout.Batch) (*AttentiveEvalResult, error) {
	base, err := p.EvaluateActions(batch)
	if err != nil {
		return nil, err
	}

	n := batch.Size()
	res := &AttentiveEvalResult{
		EvalResult:        *base,
		RecurrentFeatures: make([][]*autograd.Value, n),
	}

	headEntropies := make([]*autograd.Value, n)
	zeroBias := autograd.V(0)
	for i := 0; i < n; i++ {
		obs := batch.Observations[i]
		feat := make([]*autograd.Value, p.featureDim)
		for k := 0; k < p.featureDim; k++ {
			feat[k] = autograd.Tanh(dot(p.featureW[k], obs, zeroBias))
		}
		res.RecurrentFeatures[i] = feat

		logits := make([]*autograd.Value, len(p.headW))
		for k, w := range p.headW {
			terms := make([]*autograd.Value, len(w))
			for j, wj := range w {
				terms[j] = autograd.Mul(wj, feat[j])
			}
			logits[k] = autograd.Sum(terms)
		}
		headEntropies[i] = categoricalEntropy(logSoftmax(logits))
	}
	res.AuxEntropy = autograd.Mean(headEntropies)
	return res, nil
}

// PolicyParameters includes the feature projection alongside the
// actor-critic parameters
func (p *AttentiveGaussian) PolicyParameters() []*autograd.Value {
	out := p.LinearGaussian.PolicyParameters()
	for _, row := range p.featureW {
		out = append(out, row...)
	}
	return out
}

// AuxLossParameters adds the attention head as its own clipping group
func (p *AttentiveGaussian) AuxLossParameters() map[string][]*autograd.Value {
	out := p.LinearGaussian.AuxLossParameters()
	head := make([]*autograd.Value, 0, len(p.headW)*p.featureDim)
	for _, row := range p.headW {
		head = append(head, row...)
	}
	out["attention_head"] = head
	return out
}

// Parameters returns every trainable parameter in stable order
func (p *AttentiveGaussian) Parameters() []*autograd.Value {
	out := p.PolicyParameters()
	for _, m := range p.aux {
		out = append(out, m.Parameters()...)
	}
	for _, row := range p.headW {
		out = append(out, row...)
	}
	return out
}

//Personal.AI order the ending
