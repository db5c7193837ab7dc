// Package types provides common type definitions used across openppo.
// It defines foundational types like ID, timestamps, and scalar statistics
// to ensure type consistency throughout the learner.
package types

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// ID Types
// ============================================================================

// ID represents a unique identifier using UUID v4
type ID string

// NewID generates a new unique ID
func NewID() ID {
	return ID(uuid.New().String())
}

// String returns the string representation of ID
func (id ID) String() string {
	return string(id)
}

// IsZero checks if ID is empty
func (id ID) IsZero() bool {
	return id == ""
}

// Valid checks if ID is a valid UUID
func (id ID) Valid() bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}

// MarshalJSON implements json.Marshaler
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*id = ID(s)
	return nil
}

// ============================================================================
// Timestamp Types
// ============================================================================

// Timestamp wraps time.Time with consistent JSON formatting
type Timestamp time.Time

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON implements json.Marshaler using RFC 3339
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// ============================================================================
// Scalar Statistics
// ============================================================================

// ScalarStats summarizes a slice of scalar observations.
type ScalarStats struct {
	Min   float64 `json:"min"`
	Mean  float64 `json:"mean"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Summarize computes min/mean/max over the given values. Non-finite entries
// participate the same way they would under IEEE-754 arithmetic; callers that
// need finite statistics must filter beforehand.
func Summarize(values []float64) ScalarStats {
	if len(values) == 0 {
		return ScalarStats{}
	}

	stats := ScalarStats{
		Min:   values[0],
		Max:   values[0],
		Count: len(values),
	}

	sum := 0.0
	for _, v := range values {
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
		sum += v
	}
	stats.Mean = sum / float64(len(values))

	return stats
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

//Personal.AI order the ending
