package learner

import (
	"github.com/openeeap/openppo/pkg/autograd"
)

// ============================================================================
// Entropy Coefficient
// ============================================================================

// EntropyCoefficient weights the entropy term of the total loss. It is
// either a fixed scalar or an adaptive dual variable updated through the
// shared optimizer.
type EntropyCoefficient interface {
	// Value returns the current coefficient
	Value() float64

	// LossTerm returns this coefficient's contribution to the total loss
	// for the given mean entropy
	LossTerm(entropy *autograd.Value) *autograd.Value

	// ProjectIntoBounds clamps the coefficient back into its feasible
	// interval; a no-op for fixed coefficients
	ProjectIntoBounds()

	// Parameters returns the trainable leaves of the coefficient
	Parameters() []*autograd.Value

	// Adaptive reports whether the coefficient is a learned dual variable
	Adaptive() bool
}

// ============================================================================
// Fixed Coefficient
// ============================================================================

// FixedEntropyCoefficient is the classic constant entropy bonus.
type FixedEntropyCoefficient struct {
	coef float64
}

// NewFixedEntropyCoefficient creates a constant coefficient.
func NewFixedEntropyCoefficient(coef float64) *FixedEntropyCoefficient {
	return &FixedEntropyCoefficient{coef: coef}
}

// Value returns the coefficient
func (c *FixedEntropyCoefficient) Value() float64 { return c.coef }

// LossTerm returns -coef * entropy
func (c *FixedEntropyCoefficient) LossTerm(entropy *autograd.Value) *autograd.Value {
	return autograd.Scale(entropy, -c.coef)
}

// ProjectIntoBounds is a no-op
func (c *FixedEntropyCoefficient) ProjectIntoBounds() {}

// Parameters returns no leaves
func (c *FixedEntropyCoefficient) Parameters() []*autograd.Value { return nil }

// Adaptive reports false
func (c *FixedEntropyCoefficient) Adaptive() bool { return false }

// ============================================================================
// Lagrangian Coefficient
// ============================================================================

// LagrangeInequalityCoefficient maintains the dual variable alpha of an
// entropy inequality constraint. Its lagrangian loss is summed into the
// total loss so the shared optimizer performs the dual gradient step, and
// alpha is projected back into [alphaMin, alphaMax] after every step.
type LagrangeInequalityCoefficient struct {
	alpha *autograd.Value

	threshold   float64
	alphaMax    float64
	alphaMin    float64
	greaterThan bool
}

// NewLagrangeInequalityCoefficient creates the dual variable for the
// constraint "entropy >= threshold" (greaterThan) or "entropy <= threshold".
func NewLagrangeInequalityCoefficient(threshold, initAlpha, alphaMax, alphaMin float64, greaterThan bool) *LagrangeInequalityCoefficient {
	return &LagrangeInequalityCoefficient{
		alpha:       autograd.NewParameter(initAlpha),
		threshold:   threshold,
		alphaMax:    alphaMax,
		alphaMin:    alphaMin,
		greaterThan: greaterThan,
	}
}

// Value returns the current alpha
func (c *LagrangeInequalityCoefficient) Value() float64 {
	return c.alpha.Data
}

// LossTerm returns the lagrangian loss alpha * (threshold - entropy), with
// the sign flipped for a greater-than constraint. The result is
// differentiable in both alpha and the entropy.
func (c *LagrangeInequalityCoefficient) LossTerm(entropy *autograd.Value) *autograd.Value {
	diff := autograd.Sub(autograd.V(c.threshold), entropy)
	loss := autograd.Mul(c.alpha, diff)
	if c.greaterThan {
		return autograd.Neg(loss)
	}
	return loss
}

// ProjectIntoBounds clamps alpha into [alphaMin, alphaMax]. Called once per
// minibatch update, after the optimizer step.
func (c *LagrangeInequalityCoefficient) ProjectIntoBounds() {
	if c.alpha.Data < c.alphaMin {
		c.alpha.Data = c.alphaMin
	}
	if c.alpha.Data > c.alphaMax {
		c.alpha.Data = c.alphaMax
	}
}

// Parameters returns the alpha leaf
func (c *LagrangeInequalityCoefficient) Parameters() []*autograd.Value {
	return []*autograd.Value{c.alpha}
}

// Adaptive reports true
func (c *LagrangeInequalityCoefficient) Adaptive() bool { return true }

//Personal.AI order the ending
