// Package policy defines the actor-critic capability consumed by the
// openppo learner, together with small linear reference implementations
// used by tests and the demo entrypoint. The learner treats a policy as
// opaque: it re-evaluates stored actions, exposes its parameter groups for
// per-group gradient clipping, and optionally reports its action space so
// the adaptive entropy coefficient can decide whether to activate.
package policy

import (
	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/autograd"
	"github.com/openeeap/openppo/pkg/types"
)

// ============================================================================
// Evaluation Results
// ============================================================================

// AuxLossResult is one named auxiliary loss term produced during
// evaluation.
type AuxLossResult struct {
	// Loss is the differentiable auxiliary loss scalar
	Loss *autograd.Value

	// Metrics holds extra scalar diagnostics for this auxiliary task
	Metrics map[string]float64
}

// EvalResult carries the differentiable outputs of re-evaluating a
// minibatch's stored actions under the current parameters.
type EvalResult struct {
	// Values holds the per-sample value estimates
	Values []*autograd.Value

	// ActionLogProbs holds the per-sample log-probability of the stored action
	ActionLogProbs []*autograd.Value

	// Entropies holds the per-sample action-distribution entropy
	Entropies []*autograd.Value

	// AuxLosses holds the named auxiliary loss terms, keyed by task name
	AuxLosses map[string]*AuxLossResult
}

// AttentiveEvalResult extends EvalResult with the recurrent feature
// tensors and auxiliary-head entropy an attentive policy produces.
type AttentiveEvalResult struct {
	EvalResult

	// RecurrentFeatures holds the per-sample recurrent feature vectors
	RecurrentFeatures [][]*autograd.Value

	// AuxEntropy is the mean entropy of the auxiliary task heads
	AuxEntropy *autograd.Value
}

// ============================================================================
// Policy Interfaces
// ============================================================================

// Policy is the actor-critic capability object.
type Policy interface {
	// EvaluateActions re-evaluates the stored actions of batch under the
	// current parameters
	EvaluateActions(batch *rollout.Batch) (*EvalResult, error)

	// PolicyParameters returns the primary actor-critic parameter group
	PolicyParameters() []*autograd.Value

	// AuxLossParameters returns the named auxiliary parameter groups,
	// each clipped independently
	AuxLossParameters() map[string][]*autograd.Value

	// Parameters returns every trainable parameter in stable order
	Parameters() []*autograd.Value

	// NumActions reports the action dimensionality, or false when the
	// policy does not expose one
	NumActions() (int, bool)

	// DistributionType reports the action distribution family
	DistributionType() types.DistributionType
}

// AttentivePolicy is the extended variant carrying recurrent features and
// auxiliary-head entropy through evaluation.
type AttentivePolicy interface {
	Policy

	// EvaluateActionsAttentive is the extended evaluation used when
	// auxiliary task modules are configured
	EvaluateActionsAttentive(batch *rollout.Batch) (*AttentiveEvalResult, error)
}

// VariantOf resolves the evaluation capability of p once, for dispatch by
// flag instead of repeated type checks.
func VariantOf(p Policy) types.PolicyVariant {
	if _, ok := p.(AttentivePolicy); ok {
		return types.PolicyVariantAttentive
	}
	return types.PolicyVariantPlain
}

//Personal.AI order the ending
