package services

// Typed service errors; the handler layer maps each to an HTTP status
// and error code, so services never touch http directly.

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// InvalidStateError covers operations the current row state forbids:
// completing a finished session, redeeming exhausted stock, spending
// points the user does not have, skipping a redemption status.
type InvalidStateError struct{ Message string }

func (e *InvalidStateError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }
