package domain

import "fmt"

// constError is an immutable error type for sentinel errors.
// It implements the error interface and provides compile-time safety.
type constError string

func (e constError) Error() string { return string(e) }

// Error categories for the accounting engine. These are sentinel errors
// that can be compared with errors.Is(); callers wrap them with
// fmt.Errorf("%w: ...") to add detail.
var (
	// ErrValidation indicates a consumption record is structurally unusable:
	// the category sub-payload is missing or the reference date is absent.
	ErrValidation = constError("validation error")

	// ErrNotFound indicates a required reference document does not exist,
	// e.g. no country metric snapshot is applicable even after fallback.
	ErrNotFound = constError("not found")

	// ErrComputation indicates a resolved emission factor is missing or
	// non-numeric, or a final carbon/energy result is non-finite.
	ErrComputation = constError("computation error")

	// ErrConsistency indicates an internal invariant was violated: a summary
	// sub-entry that must exist after creation could not be found.
	ErrConsistency = constError("consistency error")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Computationf wraps ErrComputation with a formatted message.
func Computationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrComputation, fmt.Sprintf(format, args...))
}

// Consistencyf wraps ErrConsistency with a formatted message.
func Consistencyf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConsistency, fmt.Sprintf(format, args...))
}
