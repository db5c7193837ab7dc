// Package autograd provides a scalar reverse-mode automatic differentiation
// tape for openppo. Computations build a graph of Value nodes; calling
// Backward on a result propagates gradients to every parameter leaf that
// participated in it. Parameters that did not participate keep no gradient
// at all, which downstream consumers use to skip untouched parameters.
package autograd

// ============================================================================
// Value Node
// ============================================================================

// Value is one node of the autograd tape. Interior nodes record their
// operands and the local derivative with respect to each; leaves created by
// NewParameter additionally track whether a gradient is currently present.
type Value struct {
	// Data is the scalar payload of this node
	Data float64

	// Grad accumulates d(output)/d(this) during Backward
	Grad float64

	// Children are the operand nodes this value was computed from
	Children []*Value

	// LocalGrads holds the local derivative with respect to each child
	LocalGrads []float64

	param   bool
	hasGrad bool
}

// V creates a constant leaf. Constants never report a gradient.
func V(x float64) *Value {
	return &Value{Data: x}
}

// NewParameter creates a trainable leaf. Its gradient is absent until a
// Backward pass reaches it.
func NewParameter(x float64) *Value {
	return &Value{Data: x, param: true}
}

// IsParameter reports whether this node is a trainable leaf.
func (v *Value) IsParameter() bool {
	return v.param
}

// HasGrad reports whether a gradient is present on this parameter. It is
// always false for constants and interior nodes.
func (v *Value) HasGrad() bool {
	return v.param && v.hasGrad
}

// ZeroGrad discards the gradient. The parameter reports an absent gradient
// until the next Backward pass reaches it again.
func (v *Value) ZeroGrad() {
	v.Grad = 0
	v.hasGrad = false
}

// SetGrad overwrites the gradient on a parameter leaf and marks it present.
func (v *Value) SetGrad(g float64) {
	v.Grad = g
	if v.param {
		v.hasGrad = true
	}
}

// Detach returns a constant carrying the same data. Graph history is not
// retained, so gradients never flow through the result.
func (v *Value) Detach() *Value {
	return V(v.Data)
}

// ============================================================================
// Backward Pass
// ============================================================================

// Backward runs reverse-mode differentiation from out. Gradients accumulate
// into every node reachable from out; parameter leaves reached by the pass
// are marked as holding a gradient.
func Backward(out *Value) {
	var topo []*Value
	visited := make(map[*Value]bool)
	var build func(v *Value)
	build = func(v *Value) {
		if visited[v] {
			return
		}
		visited[v] = true
		for _, ch := range v.Children {
			build(ch)
		}
		topo = append(topo, v)
	}
	build(out)

	out.Grad = 1
	for i := len(topo) - 1; i >= 0; i-- {
		v := topo[i]
		if v.param {
			v.hasGrad = true
		}
		for j, ch := range v.Children {
			ch.Grad += v.LocalGrads[j] * v.Grad
		}
	}
}

//Personal.AI order the ending
