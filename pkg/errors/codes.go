// Package errors defines error code constants for openppo.
// Each error code includes a unique identifier, an error type,
// and a message template for consistent error handling across the learner.
package errors

// ErrorCode represents a structured error code definition
type ErrorCode struct {
	Code    string
	Type    ErrorType
	Message string
}

// Standard error codes organized by category

// ============================================================================
// Configuration Errors (CFG_xxx)
// ============================================================================

var (
	// ErrCfgInvalidOption indicates an unrecognized or malformed option
	ErrCfgInvalidOption = ErrorCode{
		Code:    "CFG_001",
		Type:    ErrorTypeValidation,
		Message: "Invalid configuration option",
	}

	// ErrCfgOutOfRange indicates an option value outside its acceptable range
	ErrCfgOutOfRange = ErrorCode{
		Code:    "CFG_002",
		Type:    ErrorTypeValidation,
		Message: "Configuration value is out of acceptable range",
	}

	// ErrCfgLoadFailed indicates configuration loading failed
	ErrCfgLoadFailed = ErrorCode{
		Code:    "CFG_003",
		Type:    ErrorTypeInfrastructure,
		Message: "Failed to load configuration",
	}
)

// ============================================================================
// Learner Errors (LEARN_xxx)
// ============================================================================

var (
	// ErrLearnEmptyBatch indicates a minibatch with no samples
	ErrLearnEmptyBatch = ErrorCode{
		Code:    "LEARN_001",
		Type:    ErrorTypeValidation,
		Message: "Minibatch contains no samples",
	}

	// ErrLearnShapeMismatch indicates batch field lengths disagree
	ErrLearnShapeMismatch = ErrorCode{
		Code:    "LEARN_002",
		Type:    ErrorTypeValidation,
		Message: "Batch field lengths do not match",
	}

	// ErrLearnEvaluationFailed indicates policy evaluation failed
	ErrLearnEvaluationFailed = ErrorCode{
		Code:    "LEARN_003",
		Type:    ErrorTypeInternal,
		Message: "Policy evaluation failed",
	}

	// ErrLearnNonFiniteLoss indicates the assembled loss is NaN or infinite
	ErrLearnNonFiniteLoss = ErrorCode{
		Code:    "LEARN_004",
		Type:    ErrorTypeNumerical,
		Message: "Assembled loss is not finite",
	}

	// ErrLearnBackwardFailed indicates gradient computation failed
	ErrLearnBackwardFailed = ErrorCode{
		Code:    "LEARN_005",
		Type:    ErrorTypeInternal,
		Message: "Backward pass failed",
	}
)

// ============================================================================
// Optimizer Errors (OPT_xxx)
// ============================================================================

var (
	// ErrOptStepFailed indicates the optimizer step failed
	ErrOptStepFailed = ErrorCode{
		Code:    "OPT_001",
		Type:    ErrorTypeInternal,
		Message: "Optimizer step failed",
	}

	// ErrOptStateInvalid indicates a malformed optimizer state blob
	ErrOptStateInvalid = ErrorCode{
		Code:    "OPT_002",
		Type:    ErrorTypeState,
		Message: "Optimizer state is invalid",
	}
)

// ============================================================================
// Distributed Errors (DIST_xxx)
// ============================================================================

var (
	// ErrDistAllReduceFailed indicates an all-reduce collective failed
	ErrDistAllReduceFailed = ErrorCode{
		Code:    "DIST_001",
		Type:    ErrorTypeDistributed,
		Message: "All-reduce collective failed",
	}

	// ErrDistBarrierFailed indicates a barrier synchronization failed
	ErrDistBarrierFailed = ErrorCode{
		Code:    "DIST_002",
		Type:    ErrorTypeDistributed,
		Message: "Barrier synchronization failed",
	}

	// ErrDistGroupClosed indicates the process group is no longer usable
	ErrDistGroupClosed = ErrorCode{
		Code:    "DIST_003",
		Type:    ErrorTypeDistributed,
		Message: "Process group is closed",
	}
)

// ============================================================================
// Checkpoint Errors (CKPT_xxx)
// ============================================================================

var (
	// ErrCkptEncodeFailed indicates resume state serialization failed
	ErrCkptEncodeFailed = ErrorCode{
		Code:    "CKPT_001",
		Type:    ErrorTypeInfrastructure,
		Message: "Failed to encode resume state",
	}

	// ErrCkptDecodeFailed indicates resume state deserialization failed
	ErrCkptDecodeFailed = ErrorCode{
		Code:    "CKPT_002",
		Type:    ErrorTypeState,
		Message: "Failed to decode resume state",
	}

	// ErrCkptFileNotFound indicates a checkpoint file does not exist
	ErrCkptFileNotFound = ErrorCode{
		Code:    "CKPT_003",
		Type:    ErrorTypeNotFound,
		Message: "Checkpoint file not found",
	}
)

// ============================================================================
// Internal System Errors (SYS_xxx)
// ============================================================================

var (
	// ErrSysInternalError indicates unexpected internal error
	ErrSysInternalError = ErrorCode{
		Code:    "SYS_001",
		Type:    ErrorTypeInternal,
		Message: "Internal error",
	}

	// ErrSysTimeout indicates operation timed out
	ErrSysTimeout = ErrorCode{
		Code:    "SYS_002",
		Type:    ErrorTypeTimeout,
		Message: "Operation timed out",
	}
)

// NewFromCode creates an AppError from an ErrorCode
func NewFromCode(ec ErrorCode) *AppError {
	return New(ec.Code, ec.Type, ec.Message)
}

// NewFromCodef creates an AppError from an ErrorCode with formatted message
func NewFromCodef(ec ErrorCode, args ...interface{}) *AppError {
	return Newf(ec.Code, ec.Type, ec.Message, args...)
}

//Personal.AI order the ending
