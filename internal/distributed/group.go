// Package distributed provides the collective-communication capability used
// by the openppo learner. A ProcessGroup exposes the world topology plus the
// asynchronous all-reduce and barrier primitives the gradient synchronizer
// needs; single-process training uses the no-op group, and tests exercise
// the multi-worker path through the in-process cluster.
package distributed

import (
	"context"
)

// ============================================================================
// Process Group Interface
// ============================================================================

// Handle represents an in-flight collective operation.
type Handle interface {
	// Wait blocks until the collective completes or ctx is done. On
	// success the operand slice holds the reduced result.
	Wait(ctx context.Context) error
}

// ProcessGroup is the collective-communication capability object. All
// members of a group must issue collectives in the same order.
type ProcessGroup interface {
	// WorldSize returns the number of participating workers
	WorldSize() int

	// Rank returns this worker's index in [0, WorldSize)
	Rank() int

	// AllReduceAsync starts an elementwise sum across all workers. The
	// result is written back into vec once the returned handle completes.
	AllReduceAsync(vec []float64) (Handle, error)

	// Barrier blocks until every worker has reached the same barrier call
	Barrier(ctx context.Context) error
}

// ============================================================================
// Single-Process Group
// ============================================================================

// noopGroup is the world-size-1 group. Every collective is an immediate
// identity operation.
type noopGroup struct{}

// NewNoopGroup creates the single-process group.
func NewNoopGroup() ProcessGroup {
	return noopGroup{}
}

// WorldSize returns 1
func (noopGroup) WorldSize() int { return 1 }

// Rank returns 0
func (noopGroup) Rank() int { return 0 }

// AllReduceAsync completes immediately; the sum over one worker is vec itself
func (noopGroup) AllReduceAsync(vec []float64) (Handle, error) {
	return doneHandle{}, nil
}

// Barrier returns immediately
func (noopGroup) Barrier(ctx context.Context) error {
	return ctx.Err()
}

type doneHandle struct{}

func (doneHandle) Wait(ctx context.Context) error {
	return ctx.Err()
}

//Personal.AI order the ending
