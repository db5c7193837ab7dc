package autograd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/openppo/pkg/autograd"
)

// TestValueLeaves tests the constant and parameter leaf semantics
func TestValueLeaves(t *testing.T) {
	t.Run("Constant never reports a gradient", func(t *testing.T) {
		c := autograd.V(3.5)

		assert.Equal(t, 3.5, c.Data)
		assert.False(t, c.IsParameter())
		assert.False(t, c.HasGrad())

		c.SetGrad(1)
		assert.False(t, c.HasGrad())
	})

	t.Run("Parameter gradient lifecycle", func(t *testing.T) {
		p := autograd.NewParameter(1.0)

		assert.True(t, p.IsParameter())
		assert.False(t, p.HasGrad())

		p.SetGrad(2.5)
		assert.True(t, p.HasGrad())
		assert.Equal(t, 2.5, p.Grad)

		p.ZeroGrad()
		assert.False(t, p.HasGrad())
		assert.Equal(t, 0.0, p.Grad)
	})

	t.Run("Detach severs graph history", func(t *testing.T) {
		p := autograd.NewParameter(2.0)
		d := p.Detach()

		assert.Equal(t, 2.0, d.Data)
		assert.False(t, d.IsParameter())

		out := autograd.Mul(d, d)
		autograd.Backward(out)
		assert.False(t, p.HasGrad())
	})
}

// TestBackward tests reverse-mode differentiation
func TestBackward(t *testing.T) {
	t.Run("Product rule", func(t *testing.T) {
		x := autograd.NewParameter(3.0)
		y := autograd.NewParameter(4.0)

		out := autograd.Mul(x, y)
		autograd.Backward(out)

		require.True(t, x.HasGrad())
		require.True(t, y.HasGrad())
		assert.InDelta(t, 4.0, x.Grad, 1e-12)
		assert.InDelta(t, 3.0, y.Grad, 1e-12)
	})

	t.Run("Gradient accumulates over shared subexpressions", func(t *testing.T) {
		x := autograd.NewParameter(2.0)

		// d(x*x + x)/dx = 2x + 1 = 5
		out := autograd.Add(autograd.Mul(x, x), x)
		autograd.Backward(out)

		assert.InDelta(t, 5.0, x.Grad, 1e-12)
	})

	t.Run("Chain through exp and log", func(t *testing.T) {
		x := autograd.NewParameter(0.5)

		// d(exp(2x))/dx = 2*exp(2x)
		out := autograd.Exp(autograd.Scale(x, 2))
		autograd.Backward(out)

		assert.InDelta(t, 2*out.Data, x.Grad, 1e-12)
	})

	t.Run("Unreached parameters keep no gradient", func(t *testing.T) {
		x := autograd.NewParameter(1.0)
		unused := autograd.NewParameter(9.0)

		autograd.Backward(autograd.Mul(x, x))

		assert.True(t, x.HasGrad())
		assert.False(t, unused.HasGrad())
	})
}

//Personal.AI order the ending
