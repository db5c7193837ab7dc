// Package rollout provides the trajectory buffer consumed by the openppo
// learner. A Storage holds one collected rollout; its data generator slices
// the rollout into shuffled minibatches, re-drawing an independent partition
// for every epoch.
package rollout

import (
	"github.com/openeeap/openppo/pkg/errors"
)

// ============================================================================
// Batch
// ============================================================================

// Batch is one minibatch of trajectory samples. Every tensor-valued field
// shares the leading sample dimension; the optional fields are nil when the
// producing storage does not track them.
type Batch struct {
	// Observations holds one feature vector per sample
	Observations [][]float64

	// RecurrentHiddenStates holds the recurrent state carried into each sample
	RecurrentHiddenStates [][]float64

	// PrevActions holds the action taken at the preceding step
	PrevActions [][]float64

	// Masks is 0.0 at episode boundaries and 1.0 elsewhere
	Masks []float64

	// Actions holds the action taken at each sample
	Actions [][]float64

	// ActionLogProbs holds the behavior policy's log-probability of Actions
	ActionLogProbs []float64

	// ValuePreds holds the value estimate recorded at collection time
	ValuePreds []float64

	// Returns holds the bootstrapped return target
	Returns []float64

	// Advantages holds the advantage signal computed for this update
	Advantages []float64

	// IsCoeffs holds per-sample importance-sampling coefficients, or nil
	IsCoeffs []float64

	// IsStale flags samples collected under an outdated policy, or nil
	IsStale []bool

	// PolicyVersions records the policy version each sample was collected
	// under, or nil for unversioned storage
	PolicyVersions []int64
}

// Size returns the number of samples in the batch.
func (b *Batch) Size() int {
	return len(b.Returns)
}

// Validate checks that every populated field shares the leading dimension
// and that the batch is non-empty.
func (b *Batch) Validate() error {
	n := b.Size()
	if n == 0 {
		return errors.NewFromCode(errors.ErrLearnEmptyBatch)
	}

	check := func(name string, got int) error {
		if got != n {
			return errors.NewFromCode(errors.ErrLearnShapeMismatch).
				WithDetails("field", name).
				WithDetails("expected", n).
				WithDetails("got", got)
		}
		return nil
	}

	if err := check("observations", len(b.Observations)); err != nil {
		return err
	}
	if err := check("masks", len(b.Masks)); err != nil {
		return err
	}
	if err := check("actions", len(b.Actions)); err != nil {
		return err
	}
	if err := check("action_log_probs", len(b.ActionLogProbs)); err != nil {
		return err
	}
	if err := check("value_preds", len(b.ValuePreds)); err != nil {
		return err
	}
	if err := check("advantages", len(b.Advantages)); err != nil {
		return err
	}
	if b.IsCoeffs != nil {
		if err := check("is_coeffs", len(b.IsCoeffs)); err != nil {
			return err
		}
	}
	if b.IsStale != nil {
		if err := check("is_stale", len(b.IsStale)); err != nil {
			return err
		}
	}
	if b.PolicyVersions != nil {
		if err := check("policy_versions", len(b.PolicyVersions)); err != nil {
			return err
		}
	}
	return nil
}

//Personal.AI order the ending
