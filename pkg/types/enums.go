// Package types provides enumeration type definitions for openppo.
// All enums implement String(), Valid(), and FromString() methods
// for type-safe conversions and validation across the learner.
package types

import (
	"fmt"
	"strings"
)

// ============================================================================
// Distribution Type Enumerations
// ============================================================================

// DistributionType represents the action distribution family of a policy
type DistributionType string

const (
	// DistributionCategorical represents a discrete categorical distribution
	DistributionCategorical DistributionType = "categorical"

	// DistributionGaussian represents a continuous diagonal Gaussian distribution
	DistributionGaussian DistributionType = "gaussian"

	// DistributionUnknown represents a policy that does not report its distribution
	DistributionUnknown DistributionType = "unknown"
)

// String returns the string representation
func (dt DistributionType) String() string {
	return string(dt)
}

// Valid checks if the distribution type is valid
func (dt DistributionType) Valid() bool {
	switch dt {
	case DistributionCategorical, DistributionGaussian, DistributionUnknown:
		return true
	default:
		return false
	}
}

// FromStringDistributionType converts string to DistributionType
func FromStringDistributionType(s string) (DistributionType, error) {
	dt := DistributionType(strings.ToLower(s))
	if !dt.Valid() {
		return "", fmt.Errorf("invalid distribution type: %s", s)
	}
	return dt, nil
}

// ============================================================================
// Policy Variant Enumerations
// ============================================================================

// PolicyVariant represents the evaluation capability of a policy,
// resolved once at updater construction.
type PolicyVariant string

const (
	// PolicyVariantPlain represents a standard actor-critic policy
	PolicyVariantPlain PolicyVariant = "plain"

	// PolicyVariantAttentive represents a policy exposing recurrent features
	// and auxiliary-task entropy through an extended evaluation method
	PolicyVariantAttentive PolicyVariant = "attentive"
)

// String returns the string representation
func (pv PolicyVariant) String() string {
	return string(pv)
}

// Valid checks if the policy variant is valid
func (pv PolicyVariant) Valid() bool {
	switch pv {
	case PolicyVariantPlain, PolicyVariantAttentive:
		return true
	default:
		return false
	}
}

// ============================================================================
// Metric Key Enumerations
// ============================================================================

// MetricKey identifies a scalar learner diagnostic accumulated across the
// minibatches of one update call and reduced to its mean at the end.
type MetricKey string

const (
	// MetricValueLoss is the value-function regression loss
	MetricValueLoss MetricKey = "value_loss"

	// MetricActionLoss is the clipped surrogate policy loss
	MetricActionLoss MetricKey = "action_loss"

	// MetricDistEntropy is the mean action-distribution entropy
	MetricDistEntropy MetricKey = "dist_entropy"

	// MetricGradNorm is the pre-clip gradient norm of the policy group
	MetricGradNorm MetricKey = "grad_norm"

	// MetricEntropyCoef is the current adaptive entropy coefficient
	MetricEntropyCoef MetricKey = "entropy_coef"

	// MetricFractionClipped is the fraction of samples whose probability
	// ratio fell strictly outside the clip interval (final epoch only)
	MetricFractionClipped MetricKey = "ppo_fraction_clipped"

	// MetricFractionStale is the fraction of stale samples in a minibatch
	MetricFractionStale MetricKey = "fraction_stale"

	// MetricAuxEntropy is the auxiliary-task distribution entropy
	MetricAuxEntropy MetricKey = "aux_entropy"

	// MetricValuePredMin is the minimum predicted value in a minibatch
	MetricValuePredMin MetricKey = "value_pred_min"

	// MetricValuePredMean is the mean predicted value in a minibatch
	MetricValuePredMean MetricKey = "value_pred_mean"

	// MetricValuePredMax is the maximum predicted value in a minibatch
	MetricValuePredMax MetricKey = "value_pred_max"

	// MetricProbRatioMin is the minimum importance ratio in a minibatch
	MetricProbRatioMin MetricKey = "prob_ratio_min"

	// MetricProbRatioMean is the mean importance ratio in a minibatch
	MetricProbRatioMean MetricKey = "prob_ratio_mean"

	// MetricProbRatioMax is the maximum importance ratio in a minibatch
	MetricProbRatioMax MetricKey = "prob_ratio_max"

	// MetricISCoeffsMin is the minimum importance-sampling coefficient
	MetricISCoeffsMin MetricKey = "ver_is_coeffs_min"

	// MetricISCoeffsMean is the mean importance-sampling coefficient
	MetricISCoeffsMean MetricKey = "ver_is_coeffs_mean"

	// MetricISCoeffsMax is the maximum importance-sampling coefficient
	MetricISCoeffsMax MetricKey = "ver_is_coeffs_max"

	// MetricPolicyVersionDiffMin is the minimum policy-version lag
	MetricPolicyVersionDiffMin MetricKey = "policy_version_difference_min"

	// MetricPolicyVersionDiffMean is the mean policy-version lag
	MetricPolicyVersionDiffMean MetricKey = "policy_version_difference_mean"

	// MetricPolicyVersionDiffMax is the maximum policy-version lag
	MetricPolicyVersionDiffMax MetricKey = "policy_version_difference_max"
)

// String returns the string representation
func (mk MetricKey) String() string {
	return string(mk)
}

// AuxMetricKey builds the metric key for a named auxiliary-loss diagnostic,
// e.g. AuxMetricKey("cpc", "loss") -> "aux_cpc_loss".
func AuxMetricKey(name, field string) MetricKey {
	return MetricKey(fmt.Sprintf("aux_%s_%s", name, field))
}

//Personal.AI order the ending
