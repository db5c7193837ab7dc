package learner_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/openppo/internal/distributed"
	"github.com/openeeap/openppo/internal/learner"
	"github.com/openeeap/openppo/internal/optim"
	"github.com/openeeap/openppo/pkg/autograd"
)

// TestGradientSynchronizerStep tests the single-worker backward-to-step path
func TestGradientSynchronizerStep(t *testing.T) {
	t.Run("Returns the pre-clip policy gradient norm", func(t *testing.T) {
		p := autograd.NewParameter(1.0)
		opt := optim.NewAdam([]*autograd.Value{p}, 0.1, 0)
		s := learner.NewGradientSynchronizer(
			opt, distributed.NewNoopGroup(),
			[]*autograd.Value{p}, nil, nil, 10,
		)

		loss := autograd.Scale(p, 2)
		norm, err := s.Step(context.Background(), loss)
		require.NoError(t, err)

		assert.InDelta(t, 2.0, norm, 1e-9)
		// Adam's bias-corrected first step moves by the learning rate
		assert.InDelta(t, 0.9, p.Data, 1e-9)
	})

	t.Run("Stale gradients are discarded before backward", func(t *testing.T) {
		p := autograd.NewParameter(1.0)
		q := autograd.NewParameter(2.0)
		opt := optim.NewAdam([]*autograd.Value{p, q}, 0.1, 0)
		s := learner.NewGradientSynchronizer(
			opt, distributed.NewNoopGroup(),
			[]*autograd.Value{p, q}, nil, nil, 10,
		)

		q.SetGrad(50)
		_, err := s.Step(context.Background(), autograd.Scale(p, 1))
		require.NoError(t, err)

		// the loss never touched q, so it must not move
		assert.Equal(t, 2.0, q.Data)
	})

	t.Run("Parameter groups are clipped independently", func(t *testing.T) {
		a := autograd.NewParameter(0)
		b := autograd.NewParameter(0)
		aux := autograd.NewParameter(0)
		opt := optim.NewAdam([]*autograd.Value{a, b, aux}, 0.1, 0)
		s := learner.NewGradientSynchronizer(
			opt, distributed.NewNoopGroup(),
			[]*autograd.Value{a, b},
			map[string][]*autograd.Value{"head": {aux}},
			nil, 1.0,
		)

		var auxGrad float64
		s.SetHooks(learner.Hooks{BeforeStep: func() {
			auxGrad = aux.Grad
		}})

		// policy grads (3, 4), aux grad 10
		loss := autograd.Sum([]*autograd.Value{
			autograd.Scale(a, 3),
			autograd.Scale(b, 4),
			autograd.Scale(aux, 10),
		})
		norm, err := s.Step(context.Background(), loss)
		require.NoError(t, err)

		assert.InDelta(t, 5.0, norm, 1e-9)
		// the aux group norm was 10, clipped down to the ceiling on its own
		assert.InDelta(t, 1.0, auxGrad, 1e-5)
	})

	t.Run("Hooks run in sequence and may transform the loss", func(t *testing.T) {
		p := autograd.NewParameter(1.0)
		opt := optim.NewAdam([]*autograd.Value{p}, 0.1, 0)
		s := learner.NewGradientSynchronizer(
			opt, distributed.NewNoopGroup(),
			[]*autograd.Value{p}, nil, nil, 10,
		)

		var order []string
		s.SetHooks(learner.Hooks{
			BeforeBackward: func(total *autograd.Value) *autograd.Value {
				order = append(order, "before_backward")
				return autograd.Scale(total, 2)
			},
			AfterBackward: func(*autograd.Value) { order = append(order, "after_backward") },
			BeforeStep:    func() { order = append(order, "before_step") },
			AfterStep:     func() { order = append(order, "after_step") },
		})

		norm, err := s.Step(context.Background(), autograd.Scale(p, 1))
		require.NoError(t, err)

		// the transformed loss doubled the gradient
		assert.InDelta(t, 2.0, norm, 1e-9)
		assert.Equal(t, []string{"before_backward", "after_backward", "before_step", "after_step"}, order)
	})
}

// TestGradientSynchronizerAllReduce tests non-policy gradient averaging
func TestGradientSynchronizerAllReduce(t *testing.T) {
	cluster, err := distributed.NewLocalCluster(2)
	require.NoError(t, err)

	type worker struct {
		policy *autograd.Value
		dual   *autograd.Value
		sync   *learner.GradientSynchronizer

		dualGrad   float64
		policyGrad float64
	}

	workers := make([]*worker, 2)
	scales := []float64{2, 4}
	for rank := 0; rank < 2; rank++ {
		group, err := cluster.Member(rank)
		require.NoError(t, err)

		w := &worker{
			policy: autograd.NewParameter(0),
			dual:   autograd.NewParameter(0.5),
		}
		opt := optim.NewAdam([]*autograd.Value{w.policy, w.dual}, 0.1, 0)
		w.sync = learner.NewGradientSynchronizer(
			opt, group,
			[]*autograd.Value{w.policy}, nil,
			[]*autograd.Value{w.dual}, 10,
		)
		w.sync.SetHooks(learner.Hooks{BeforeStep: func() {
			w.dualGrad = w.dual.Grad
			w.policyGrad = w.policy.Grad
		}})
		workers[rank] = w
	}

	var wg sync.WaitGroup
	for rank, w := range workers {
		wg.Add(1)
		go func(w *worker, scale float64) {
			defer wg.Done()
			loss := autograd.Add(
				autograd.Scale(w.policy, 1),
				autograd.Scale(w.dual, scale),
			)
			_, err := w.sync.Step(context.Background(), loss)
			assert.NoError(t, err)
		}(w, scales[rank])
	}
	wg.Wait()

	for _, w := range workers {
		// the dual gradient is averaged: (2 + 4) / 2
		assert.InDelta(t, 3.0, w.dualGrad, 1e-9)
		// policy gradients are never reduced here
		assert.InDelta(t, 1.0, w.policyGrad, 1e-9)
	}
}

//Personal.AI order the ending
