package learner

import (
	"context"
	"sort"

	"github.com/openeeap/openppo/internal/distributed"
	"github.com/openeeap/openppo/internal/optim"
	"github.com/openeeap/openppo/pkg/autograd"
	"github.com/openeeap/openppo/pkg/errors"
)

// ============================================================================
// Gradient Synchronizer
// ============================================================================

// GradientSynchronizer owns the backward-to-step sequence of one minibatch:
// discard stale gradients, run the backward pass, average the non-policy
// gradients across workers, clip each parameter group independently, and
// invoke the optimizer. The policy network's own gradients are assumed
// already synchronized by its distributed wrapper and are never reduced
// here.
type GradientSynchronizer struct {
	optimizer optim.Optimizer
	group     distributed.ProcessGroup

	policyParams []*autograd.Value
	auxGroups    map[string][]*autograd.Value
	auxNames     []string
	nonACParams  []*autograd.Value

	maxGradNorm float64

	hooks Hooks
}

// Hooks are optional extension points invoked around the backward-to-step
// sequence. Nil entries are skipped.
type Hooks struct {
	// BeforeBackward may transform the total loss before the backward pass
	BeforeBackward func(total *autograd.Value) *autograd.Value

	// AfterBackward runs once gradients are populated
	AfterBackward func(total *autograd.Value)

	// BeforeStep runs after synchronization and clipping, before the
	// optimizer step
	BeforeStep func()

	// AfterStep runs after the optimizer step
	AfterStep func()
}

// NewGradientSynchronizer creates a synchronizer. nonACParams are the
// parameters outside the primary policy module (auxiliary heads, the
// entropy dual variable) whose gradients this synchronizer averages across
// the group.
func NewGradientSynchronizer(optimizer optim.Optimizer, group distributed.ProcessGroup, policyParams []*autograd.Value, auxGroups map[string][]*autograd.Value, nonACParams []*autograd.Value, maxGradNorm float64) *GradientSynchronizer {
	names := make([]string, 0, len(auxGroups))
	for name := range auxGroups {
		names = append(names, name)
	}
	sort.Strings(names)

	return &GradientSynchronizer{
		optimizer:    optimizer,
		group:        group,
		policyParams: policyParams,
		auxGroups:    auxGroups,
		auxNames:     names,
		nonACParams:  nonACParams,
		maxGradNorm:  maxGradNorm,
	}
}

// ZeroGrad discards every managed gradient.
func (s *GradientSynchronizer) ZeroGrad() {
	s.optimizer.ZeroGrad()
}

// SetHooks installs the extension points invoked by Step.
func (s *GradientSynchronizer) SetHooks(hooks Hooks) {
	s.hooks = hooks
}

// Step runs backward through totalLoss and applies one optimizer step. The
// returned value is the pre-clip gradient norm of the policy group.
//
// The non-policy all-reduce is issued asynchronously and overlapped with
// per-group clipping; every in-flight handle is awaited before the
// optimizer step so no gradient is read while a reduction is outstanding.
func (s *GradientSynchronizer) Step(ctx context.Context, totalLoss *autograd.Value) (float64, error) {
	s.optimizer.ZeroGrad()

	if s.hooks.BeforeBackward != nil {
		totalLoss = s.hooks.BeforeBackward(totalLoss)
	}
	autograd.Backward(totalLoss)
	if s.hooks.AfterBackward != nil {
		s.hooks.AfterBackward(totalLoss)
	}

	handle, reduced, err := s.launchNonACReduce()
	if err != nil {
		return 0, err
	}

	gradNorm := optim.ClipGradNorm(s.policyParams, s.maxGradNorm)
	for _, name := range s.auxNames {
		optim.ClipGradNorm(s.auxGroups[name], s.maxGradNorm)
	}

	if handle != nil {
		if err := handle.Wait(ctx); err != nil {
			return 0, errors.DistributedError("all_reduce", err)
		}
		s.scatterReduced(reduced)
	}

	if s.hooks.BeforeStep != nil {
		s.hooks.BeforeStep()
	}
	if err := s.optimizer.Step(); err != nil {
		return 0, err
	}
	if s.hooks.AfterStep != nil {
		s.hooks.AfterStep()
	}
	return gradNorm, nil
}

// launchNonACReduce starts the asynchronous averaging of the non-policy
// gradients. Parameters without a present gradient are skipped. Returns a
// nil handle when there is nothing to reduce or the world is size one.
func (s *GradientSynchronizer) launchNonACReduce() (distributed.Handle, []float64, error) {
	worldSize := s.group.WorldSize()
	if worldSize <= 1 {
		return nil, nil, nil
	}

	vec := make([]float64, 0, len(s.nonACParams))
	for _, p := range s.nonACParams {
		if !p.HasGrad() {
			continue
		}
		vec = append(vec, p.Grad/float64(worldSize))
	}
	if len(vec) == 0 {
		return nil, nil, nil
	}

	handle, err := s.group.AllReduceAsync(vec)
	if err != nil {
		return nil, nil, errors.DistributedError("all_reduce", err)
	}
	return handle, vec, nil
}

// scatterReduced writes the averaged gradients back onto the non-policy
// parameters, in the same order launchNonACReduce packed them.
func (s *GradientSynchronizer) scatterReduced(reduced []float64) {
	i := 0
	for _, p := range s.nonACParams {
		if !p.HasGrad() {
			continue
		}
		p.SetGrad(reduced[i])
		i++
	}
}

//Personal.AI order the ending
