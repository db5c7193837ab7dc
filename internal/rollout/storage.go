package rollout

import (
	"context"
	"math/rand"

	"github.com/openeeap/openppo/pkg/errors"
)

// ============================================================================
// Storage
// ============================================================================

// Storage holds one collected rollout. It is read-only to the learner
// during an update; only the construction-time producer writes it.
type Storage struct {
	observations          [][]float64
	recurrentHiddenStates [][]float64
	prevActions           [][]float64
	masks                 []float64
	actions               [][]float64
	actionLogProbs        []float64
	valuePreds            []float64
	returns               []float64

	isCoeffs       []float64
	isStale        []bool
	policyVersions []int64
	policyVersion  int64
	versioned      bool

	rng *rand.Rand
}

// StorageConfig carries the sample tensors for a new Storage. Optional
// fields may be nil.
type StorageConfig struct {
	Observations          [][]float64
	RecurrentHiddenStates [][]float64
	PrevActions           [][]float64
	Masks                 []float64
	Actions               [][]float64
	ActionLogProbs        []float64
	ValuePreds            []float64
	Returns               []float64

	IsCoeffs       []float64
	IsStale        []bool
	PolicyVersions []int64

	// PolicyVersion is the version of the policy currently being trained;
	// meaningful only when PolicyVersions is set
	PolicyVersion int64

	// Seed fixes the minibatch shuffle order; 0 selects a time-based seed
	Seed int64
}

// NewStorage creates a Storage over the given rollout tensors.
func NewStorage(cfg StorageConfig) (*Storage, error) {
	n := len(cfg.Returns)
	if n == 0 {
		return nil, errors.NewFromCode(errors.ErrLearnEmptyBatch)
	}
	if len(cfg.Observations) != n || len(cfg.Masks) != n ||
		len(cfg.Actions) != n || len(cfg.ActionLogProbs) != n ||
		len(cfg.ValuePreds) != n {
		return nil, errors.NewFromCode(errors.ErrLearnShapeMismatch).
			WithDetails("expected", n)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	return &Storage{
		observations:          cfg.Observations,
		recurrentHiddenStates: cfg.RecurrentHiddenStates,
		prevActions:           cfg.PrevActions,
		masks:                 cfg.Masks,
		actions:               cfg.Actions,
		actionLogProbs:        cfg.ActionLogProbs,
		valuePreds:            cfg.ValuePreds,
		returns:               cfg.Returns,
		isCoeffs:              cfg.IsCoeffs,
		isStale:               cfg.IsStale,
		policyVersions:        cfg.PolicyVersions,
		policyVersion:         cfg.PolicyVersion,
		versioned:             cfg.PolicyVersions != nil,
		rng:                   rand.New(rand.NewSource(seed)),
	}, nil
}

// Size returns the number of samples in the rollout.
func (s *Storage) Size() int {
	return len(s.returns)
}

// Returns exposes the return targets of the rollout.
func (s *Storage) Returns() []float64 {
	return s.returns
}

// ValuePreds exposes the collection-time value estimates.
func (s *Storage) ValuePreds() []float64 {
	return s.valuePreds
}

// Versioned reports whether the rollout tracks per-sample policy versions.
func (s *Storage) Versioned() bool {
	return s.versioned
}

// PolicyVersion returns the version of the policy currently training on
// this rollout.
func (s *Storage) PolicyVersion() int64 {
	return s.policyVersion
}

// ============================================================================
// Minibatch Generation
// ============================================================================

// DataGenerator draws one epoch's partition of the rollout into
// numMiniBatch shuffled minibatches and streams them lazily. Each call
// re-shuffles, so every epoch sees an independent partition. The channel
// is closed after the last minibatch, or as soon as ctx is cancelled, so
// a consumer that stops reading mid-epoch never strands the producer.
func (s *Storage) DataGenerator(ctx context.Context, advantages []float64, numMiniBatch int) (<-chan Batch, error) {
	n := s.Size()
	if len(advantages) != n {
		return nil, errors.NewFromCode(errors.ErrLearnShapeMismatch).
			WithDetails("field", "advantages").
			WithDetails("expected", n).
			WithDetails("got", len(advantages))
	}
	if numMiniBatch < 1 || numMiniBatch > n {
		return nil, errors.NewFromCode(errors.ErrCfgOutOfRange).
			WithDetails("num_mini_batch", numMiniBatch).
			WithDetails("samples", n)
	}

	perm := s.rng.Perm(n)

	out := make(chan Batch)
	go func() {
		defer close(out)
		base := n / numMiniBatch
		rem := n % numMiniBatch
		start := 0
		for i := 0; i < numMiniBatch; i++ {
			size := base
			if i < rem {
				size++
			}
			select {
			case out <- s.gather(perm[start:start+size], advantages):
			case <-ctx.Done():
				return
			}
			start += size
		}
	}()
	return out, nil
}

// gather materializes one minibatch from the given sample indices.
func (s *Storage) gather(idx []int, advantages []float64) Batch {
	b := Batch{
		Observations:   make([][]float64, len(idx)),
		Masks:          make([]float64, len(idx)),
		Actions:        make([][]float64, len(idx)),
		ActionLogProbs: make([]float64, len(idx)),
		ValuePreds:     make([]float64, len(idx)),
		Returns:        make([]float64, len(idx)),
		Advantages:     make([]float64, len(idx)),
	}
	if s.recurrentHiddenStates != nil {
		b.RecurrentHiddenStates = make([][]float64, len(idx))
	}
	if s.prevActions != nil {
		b.PrevActions = make([][]float64, len(idx))
	}
	if s.isCoeffs != nil {
		b.IsCoeffs = make([]float64, len(idx))
	}
	if s.isStale != nil {
		b.IsStale = make([]bool, len(idx))
	}
	if s.policyVersions != nil {
		b.PolicyVersions = make([]int64, len(idx))
	}

	for i, j := range idx {
		b.Observations[i] = s.observations[j]
		b.Masks[i] = s.masks[j]
		b.Actions[i] = s.actions[j]
		b.ActionLogProbs[i] = s.actionLogProbs[j]
		b.ValuePreds[i] = s.valuePreds[j]
		b.Returns[i] = s.returns[j]
		b.Advantages[i] = advantages[j]
		if b.RecurrentHiddenStates != nil {
			b.RecurrentHiddenStates[i] = s.recurrentHiddenStates[j]
		}
		if b.PrevActions != nil {
			b.PrevActions[i] = s.prevActions[j]
		}
		if b.IsCoeffs != nil {
			b.IsCoeffs[i] = s.isCoeffs[j]
		}
		if b.IsStale != nil {
			b.IsStale[i] = s.isStale[j]
		}
		if b.PolicyVersions != nil {
			b.PolicyVersions[i] = s.policyVersions[j]
		}
	}
	return b
}

//Personal.AI order the ending
