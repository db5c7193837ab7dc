package errors

// Helper functions for common error types to simplify error creation

// NewValidationError creates a validation error
func NewValidationError(code, message string) *AppError {
	return New(code, ErrorTypeValidation, message)
}

// NewNumericalError creates a numerical error
func NewNumericalError(code, message string) *AppError {
	return New(code, ErrorTypeNumerical, message)
}

// NewDistributedError creates a distributed error
func NewDistributedError(code, message string) *AppError {
	return New(code, ErrorTypeDistributed, message)
}

// NewStateError creates a state error
func NewStateError(code, message string) *AppError {
	return New(code, ErrorTypeState, message)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(code, message string) *AppError {
	return New(code, ErrorTypeNotFound, message)
}

// NewInternalError creates an internal error
func NewInternalError(code, message string) *AppError {
	return New(code, ErrorTypeInternal, message)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(code, message string) *AppError {
	return New(code, ErrorTypeTimeout, message)
}

// WrapDistributedError wraps an existing error as distributed error
func WrapDistributedError(err error, code, message string) *AppError {
	return NewDistributedError(code, message).WithCause(err)
}

// WrapInternalError wraps an existing error as internal error
func WrapInternalError(err error, code, message string) *AppError {
	return NewInternalError(code, message).WithCause(err)
}

// Common error codes as constants
const (
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeNumericalError   = "NUMERICAL_ERROR"
	CodeDistributedError = "DISTRIBUTED_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeStateError       = "STATE_ERROR"
	CodeTimeout          = "TIMEOUT"
)

//Personal.AI order the ending
