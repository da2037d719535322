package errors

import stdErrors "errors"

// InternalError reports a failed internal-consistency assertion (spec
// §7 "Internal consistency": e.g. a pre- vs post-header id mismatch).
// There is no recovery path for this error kind — callers treat it as
// fatal rather than attempting to continue.
type InternalError struct {
	*baseError
	invariant string
}

const (
	// ErrorCodeAssertionFailed marks a violated invariant the code
	// assumed could never happen (e.g. duplicate run-file ids, an
	// index that disagrees with its data file).
	ErrorCodeAssertionFailed ErrorCode = "INTERNAL_ASSERTION_FAILED"
)

// NewInternalError creates a new internal-consistency error.
func NewInternalError(err error, msg string) *InternalError {
	return &InternalError{baseError: NewBaseError(err, ErrorCodeAssertionFailed, msg)}
}

// WithInvariant names the invariant that was violated, for logging.
func (ie *InternalError) WithInvariant(invariant string) *InternalError {
	ie.invariant = invariant
	return ie
}

// Invariant returns the name of the violated invariant.
func (ie *InternalError) Invariant() string { return ie.invariant }

// IsInternalError reports whether err is (or wraps) an *InternalError.
func IsInternalError(err error) bool {
	var ie *InternalError
	return stdErrors.As(err, &ie)
}
