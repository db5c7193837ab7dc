package policy

import (
	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/autograd"
)

// ============================================================================
// Auxiliary Task Modules
// ============================================================================

// AuxModule is one named auxiliary task attached to a policy. Its
// parameters form an independent clipping group.
type AuxModule interface {
	// Name identifies the task in metrics and parameter-group maps
	Name() string

	// Loss computes the differentiable auxiliary loss for batch
	Loss(batch *rollout.Batch) (*AuxLossResult, error)

	// Parameters returns the task's trainable parameters
	Parameters() []*autograd.Value
}

// auxParamGroups collects the per-task parameter groups of modules.
func auxParamGroups(modules []AuxModule) map[string][]*autograd.Value {
	out := make(map[string][]*autograd.Value, len(modules))
	for _, m := range modules {
		out[m.Name()] = m.Parameters()
	}
	return out
}

// ReturnPredictor is a small auxiliary head regressing the return target
// from the raw observation. It exercises the auxiliary-loss path without
// needing extra rollout fields.
type ReturnPredictor struct {
	name string
	w    []*autograd.Value
	b    *autograd.Value
}

// NewReturnPredictor creates a zero-initialized return-prediction head.
func NewReturnPredictor(name string, obsDim int) *ReturnPredictor {
	return &ReturnPredictor{
		name: name,
		w:    newParams(obsDim),
		b:    autograd.NewParameter(0),
	}
}

// Name identifies the task
func (m *ReturnPredictor) Name() string { return m.name }

// Loss returns the mean squared prediction error over batch
func (m *ReturnPredictor) Loss(batch *rollout.Batch) (*AuxLossResult, error) {
	n := batch.Size()
	sq := make([]*autograd.Value, n)
	for i := 0; i < n; i++ {
		pred := dot(m.w, batch.Observations[i], m.b)
		diff := autograd.Shift(pred, -batch.Returns[i])
		sq[i] = autograd.Mul(diff, diff)
	}
	loss := autograd.Mean(sq)
	return &AuxLossResult{
		Loss:    loss,
		Metrics: map[string]float64{"loss": loss.Data},
	}, nil
}

// Parameters returns the head's trainable parameters
func (m *ReturnPredictor) Parameters() []*autograd.Value {
	return append(append([]*autograd.Value{}, m.w...), m.b)
}

//Personal.AI order the ending
