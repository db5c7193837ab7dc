package distributed

import (
	"context"
	"sync"

	"github.com/openeeap/openppo/pkg/errors"
)

// ============================================================================
// In-Process Cluster
// ============================================================================

// LocalCluster simulates a multi-worker deployment inside one process.
// Each member behaves as an independent ProcessGroup endpoint; collectives
// rendezvous through shared state guarded by a mutex, and completion is
// signalled over channels so members can overlap compute with communication.
type LocalCluster struct {
	size int

	mu         sync.Mutex
	reductions map[int]*reduction
	barriers   map[int]*barrier
}

// NewLocalCluster creates an in-process cluster with size members.
func NewLocalCluster(size int) (*LocalCluster, error) {
	if size < 1 {
		return nil, errors.NewFromCode(errors.ErrCfgOutOfRange).
			WithDetails("world_size", size)
	}
	return &LocalCluster{
		size:       size,
		reductions: make(map[int]*reduction),
		barriers:   make(map[int]*barrier),
	}, nil
}

// Member returns the group endpoint for the worker at rank.
func (c *LocalCluster) Member(rank int) (ProcessGroup, error) {
	if rank < 0 || rank >= c.size {
		return nil, errors.NewFromCode(errors.ErrCfgOutOfRange).
			WithDetails("rank", rank).
			WithDetails("world_size", c.size)
	}
	return &localMember{cluster: c, rank: rank}, nil
}

// reduction is one rendezvous of an all-reduce round. Operand slices are
// collected until every member has arrived, then the elementwise sum is
// written back into each of them.
type reduction struct {
	operands [][]float64
	done     chan struct{}
	err      error
}

// barrier is one rendezvous of a barrier round.
type barrier struct {
	arrived int
	done    chan struct{}
}

type localMember struct {
	cluster *LocalCluster
	rank    int

	reduceSeq  int
	barrierSeq int
}

// WorldSize returns the number of participating workers
func (m *localMember) WorldSize() int { return m.cluster.size }

// Rank returns this worker's index
func (m *localMember) Rank() int { return m.rank }

// AllReduceAsync registers vec with the current reduction round. The last
// member to arrive computes the sum and releases everyone's handle.
func (m *localMember) AllReduceAsync(vec []float64) (Handle, error) {
	c := m.cluster
	seq := m.reduceSeq
	m.reduceSeq++

	c.mu.Lock()
	r, ok := c.reductions[seq]
	if !ok {
		r = &reduction{done: make(chan struct{})}
		c.reductions[seq] = r
	}
	if len(r.operands) > 0 && len(r.operands[0]) != len(vec) {
		c.mu.Unlock()
		return nil, errors.NewFromCode(errors.ErrDistAllReduceFailed).
			WithDetails("expected_len", len(r.operands[0])).
			WithDetails("got_len", len(vec))
	}
	r.operands = append(r.operands, vec)
	if len(r.operands) == c.size {
		sum := make([]float64, len(vec))
		for _, op := range r.operands {
			for i, v := range op {
				sum[i] += v
			}
		}
		for _, op := range r.operands {
			copy(op, sum)
		}
		delete(c.reductions, seq)
		close(r.done)
	}
	c.mu.Unlock()

	return &localHandle{reduction: r}, nil
}

// Barrier blocks until every member reaches the same barrier call
func (m *localMember) Barrier(ctx context.Context) error {
	c := m.cluster
	seq := m.barrierSeq
	m.barrierSeq++

	c.mu.Lock()
	b, ok := c.barriers[seq]
	if !ok {
		b = &barrier{done: make(chan struct{})}
		c.barriers[seq] = b
	}
	b.arrived++
	if b.arrived == c.size {
		delete(c.barriers, seq)
		close(b.done)
	}
	c.mu.Unlock()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return errors.NewFromCode(errors.ErrDistBarrierFailed).WithCause(ctx.Err())
	}
}

type localHandle struct {
	reduction *reduction
}

// Wait blocks until the reduction round completes or ctx is done
func (h *localHandle) Wait(ctx context.Context) error {
	select {
	case <-h.reduction.done:
		return h.reduction.err
	case <-ctx.Done():
		return errors.NewFromCode(errors.ErrDistAllReduceFailed).WithCause(ctx.Err())
	}
}

//Personal.AI order the ending
