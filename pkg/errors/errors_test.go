package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/openppo/pkg/errors"
)

// TestNewFromCode tests construction from the code catalogue
func TestNewFromCode(t *testing.T) {
	err := errors.NewFromCode(errors.ErrLearnShapeMismatch)

	assert.Equal(t, "LEARN_002", err.Code)
	assert.Equal(t, errors.ErrorTypeValidation, err.Type)
	assert.Contains(t, err.Error(), "LEARN_002")
	assert.Contains(t, err.Error(), err.Message)
}

// TestErrorContext tests detail and cause chaining
func TestErrorContext(t *testing.T) {
	t.Run("Details accumulate", func(t *testing.T) {
		err := errors.NewFromCode(errors.ErrCfgOutOfRange).
			WithDetails("clip_param", -1.0).
			WithDetails("lr", 0.0)

		assert.Equal(t, -1.0, err.Details["clip_param"])
		assert.Equal(t, 0.0, err.Details["lr"])
	})

	t.Run("Cause participates in the message and unwraps", func(t *testing.T) {
		cause := fmt.Errorf("disk full")
		err := errors.NewFromCode(errors.ErrCkptEncodeFailed).WithCause(cause)

		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, cause, err.Unwrap())
	})
}

// TestWrap tests foreign-error wrapping
func TestWrap(t *testing.T) {
	t.Run("Plain errors become internal", func(t *testing.T) {
		wrapped := errors.Wrap(fmt.Errorf("boom"), "SYS_001", "step failed")

		require.NotNil(t, wrapped)
		assert.Equal(t, errors.ErrorTypeInternal, wrapped.Type)
		assert.Equal(t, "SYS_001", wrapped.Code)
	})

	t.Run("Structured errors keep their type through the chain", func(t *testing.T) {
		inner := errors.NewFromCode(errors.ErrDistAllReduceFailed)
		wrapped := errors.Wrap(inner, "LEARN_005", "minibatch step failed")

		require.NotNil(t, wrapped)
		assert.Equal(t, errors.ErrorTypeDistributed, wrapped.Type)
		assert.Equal(t, inner, wrapped.Unwrap())
	})

	t.Run("Nil stays nil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, "SYS_001", "ignored"))
	})
}

// TestInspection tests the classification helpers
func TestInspection(t *testing.T) {
	err := errors.NewFromCode(errors.ErrCkptFileNotFound)

	assert.True(t, errors.Is(err, "CKPT_003"))
	assert.False(t, errors.Is(err, "CKPT_001"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.False(t, errors.IsType(err, errors.ErrorTypeState))

	assert.Equal(t, "CKPT_003", errors.GetCode(err))
	assert.Equal(t, "UNKNOWN", errors.GetCode(fmt.Errorf("plain")))
	assert.Equal(t, "", errors.GetCode(nil))

	assert.False(t, errors.Is(nil, "CKPT_003"))
	assert.False(t, errors.IsType(nil, errors.ErrorTypeNotFound))
}

// TestDistributedError tests the collective-failure wrapper
func TestDistributedError(t *testing.T) {
	err := errors.DistributedError("all_reduce", fmt.Errorf("peer gone"))

	require.NotNil(t, err)
	assert.Equal(t, errors.ErrorTypeDistributed, err.Type)
	assert.Contains(t, err.Error(), "all_reduce")
	assert.Contains(t, err.Error(), "peer gone")
}

//Personal.AI order the ending
