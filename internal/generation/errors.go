package generation

import "errors"

// Upstream failure taxonomy. The retry controller re-attempts only the
// transient class; everything else ends the attempt chain immediately.
var (
	// ErrRateLimited is returned when the service rejects the call for
	// exceeding its rate limits. Transient.
	ErrRateLimited = errors.New("generation service rate limited")

	// ErrServerFault is returned for server-side faults (5xx). Transient.
	ErrServerFault = errors.New("generation service server fault")

	// ErrTimeout is returned when the call exceeds its transport deadline.
	// Transient.
	ErrTimeout = errors.New("generation service call timed out")

	// ErrClientFault is returned for malformed requests, safety blocks and
	// other client-side faults. Fatal: retrying an identical request cannot
	// succeed.
	ErrClientFault = errors.New("generation service rejected request")

	// ErrAuthFailure is returned for authentication/authorization failures.
	// Fatal.
	ErrAuthFailure = errors.New("generation service authentication failed")

	// ErrInvalidPayload is returned when a completed call's payload fails
	// structural validation. Never retried: a structural defect is a
	// property of the prompt/template pair, not of the attempt.
	ErrInvalidPayload = errors.New("generation payload failed validation")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// IsTransient reports whether err belongs to the retryable class:
// rate limiting, server faults and timeouts.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServerFault) ||
		errors.Is(err, ErrTimeout)
}

// IsValidationFailure reports whether err is a payload validation failure,
// which the worker commits as terminal without consulting the retry
// controller.
func IsValidationFailure(err error) bool {
	return errors.Is(err, ErrInvalidPayload)
}
