package autograd

import "math"

// ============================================================================
// Arithmetic Operations
// ============================================================================

// Add returns a + b.
func Add(a, b *Value) *Value {
	return &Value{Data: a.Data + b.Data, Children: []*Value{a, b}, LocalGrads: []float64{1, 1}}
}

// Sub returns a - b.
func Sub(a, b *Value) *Value {
	return &Value{Data: a.Data - b.Data, Children: []*Value{a, b}, LocalGrads: []float64{1, -1}}
}

// Mul returns a * b.
func Mul(a, b *Value) *Value {
	return &Value{Data: a.Data * b.Data, Children: []*Value{a, b}, LocalGrads: []float64{b.Data, a.Data}}
}

// Div returns a / b.
func Div(a, b *Value) *Value {
	return &Value{
		Data:       a.Data / b.Data,
		Children:   []*Value{a, b},
		LocalGrads: []float64{1 / b.Data, -a.Data / (b.Data * b.Data)},
	}
}

// Neg returns -a.
func Neg(a *Value) *Value {
	return &Value{Data: -a.Data, Children: []*Value{a}, LocalGrads: []float64{-1}}
}

// Scale returns a * c for a plain scalar c.
func Scale(a *Value, c float64) *Value {
	return &Value{Data: a.Data * c, Children: []*Value{a}, LocalGrads: []float64{c}}
}

// Shift returns a + c for a plain scalar c.
func Shift(a *Value, c float64) *Value {
	return &Value{Data: a.Data + c, Children: []*Value{a}, LocalGrads: []float64{1}}
}

// ============================================================================
// Transcendental Operations
// ============================================================================

// Exp returns e^a.
func Exp(a *Value) *Value {
	ed := math.Exp(a.Data)
	return &Value{Data: ed, Children: []*Value{a}, LocalGrads: []float64{ed}}
}

// Log returns the natural logarithm of a.
func Log(a *Value) *Value {
	return &Value{Data: math.Log(a.Data), Children: []*Value{a}, LocalGrads: []float64{1 / a.Data}}
}

// Pow returns a^p for a plain scalar exponent p.
func Pow(a *Value, p float64) *Value {
	return &Value{Data: math.Pow(a.Data, p), Children: []*Value{a}, LocalGrads: []float64{p * math.Pow(a.Data, p-1)}}
}

// Tanh returns the hyperbolic tangent of a.
func Tanh(a *Value) *Value {
	t := math.Tanh(a.Data)
	return &Value{Data: t, Children: []*Value{a}, LocalGrads: []float64{1 - t*t}}
}

// ============================================================================
// Piecewise Operations
// ============================================================================

// Min returns the smaller of a and b, routing the gradient to the chosen
// operand. Ties route to a.
func Min(a, b *Value) *Value {
	if a.Data <= b.Data {
		return &Value{Data: a.Data, Children: []*Value{a, b}, LocalGrads: []float64{1, 0}}
	}
	return &Value{Data: b.Data, Children: []*Value{a, b}, LocalGrads: []float64{0, 1}}
}

// Max returns the larger of a and b, routing the gradient to the chosen
// operand. Ties route to a.
func Max(a, b *Value) *Value {
	if a.Data >= b.Data {
		return &Value{Data: a.Data, Children: []*Value{a, b}, LocalGrads: []float64{1, 0}}
	}
	return &Value{Data: b.Data, Children: []*Value{a, b}, LocalGrads: []float64{0, 1}}
}

// Clamp limits a to [lo, hi]. The gradient is 1 inside the interval and 0
// on the clamped branches.
func Clamp(a *Value, lo, hi float64) *Value {
	switch {
	case a.Data < lo:
		return &Value{Data: lo, Children: []*Value{a}, LocalGrads: []float64{0}}
	case a.Data > hi:
		return &Value{Data: hi, Children: []*Value{a}, LocalGrads: []float64{0}}
	default:
		return &Value{Data: a.Data, Children: []*Value{a}, LocalGrads: []float64{1}}
	}
}

// Abs returns |a| with the sign of a as its local derivative. The
// subgradient at zero is 0.
func Abs(a *Value) *Value {
	switch {
	case a.Data > 0:
		return &Value{Data: a.Data, Children: []*Value{a}, LocalGrads: []float64{1}}
	case a.Data < 0:
		return &Value{Data: -a.Data, Children: []*Value{a}, LocalGrads: []float64{-1}}
	default:
		return &Value{Data: 0, Children: []*Value{a}, LocalGrads: []float64{0}}
	}
}

// ============================================================================
// Reductions
// ============================================================================

// Sum returns the sum over vs, or a zero constant for an empty slice.
func Sum(vs []*Value) *Value {
	if len(vs) == 0 {
		return V(0)
	}
	grads := make([]float64, len(vs))
	total := 0.0
	for i, v := range vs {
		grads[i] = 1
		total += v.Data
	}
	children := make([]*Value, len(vs))
	copy(children, vs)
	return &Value{Data: total, Children: children, LocalGrads: grads}
}

// Mean returns the arithmetic mean over vs, or a zero constant for an
// empty slice.
func Mean(vs []*Value) *Value {
	if len(vs) == 0 {
		return V(0)
	}
	return Scale(Sum(vs), 1/float64(len(vs)))
}

// WeightedMean returns sum(w_i * v_i) / n. The weights are plain scalars
// and carry no gradient.
func WeightedMean(vs []*Value, weights []float64) *Value {
	if len(vs) == 0 {
		return V(0)
	}
	weighted := make([]*Value, len(vs))
	for i, v := range vs {
		weighted[i] = Scale(v, weights[i])
	}
	return Mean(weighted)
}

//Personal.AI order the ending
