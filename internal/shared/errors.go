package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session and access errors
	ErrUnauthorized = fmt.Errorf("no valid session")
	ErrForbidden    = fmt.Errorf("insufficient role")
	ErrInvalidToken = fmt.Errorf("invalid session token")

	// Persistence errors
	ErrNotFound        = fmt.Errorf("not found")
	ErrCourseNotFound  = fmt.Errorf("course not found")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrStaleWrite      = fmt.Errorf("stale write rejected")
	ErrInvalidDocument = fmt.Errorf("invalid document")
	ErrPersist         = fmt.Errorf("persistence failed")
	ErrTimeout         = fmt.Errorf("operation timed out")

	// ErrRetryable marks failures the caller may retry without changing input.
	ErrRetryable = fmt.Errorf("retryable")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrVideoNotFound      = fmt.Errorf("video not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrIndexOutOfRange = fmt.Errorf("step index out of range")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
