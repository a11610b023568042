package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/trellisdata/trellis/internal/generation"
)

// classifyError maps transport and API failures onto the generation error
// taxonomy so the worker's retry controller can decide whether to
// re-attempt. Unknown failures are treated as server faults: retrying an
// unclassified error is cheap, silently dropping a recoverable one is not.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", generation.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatusCode(apiErr.Code, err)
	}

	return fmt.Errorf("%w: %v", generation.ErrServerFault, err)
}

// classifyStatusCode maps an upstream HTTP status code onto the taxonomy.
func classifyStatusCode(code int, err error) error {
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", generation.ErrRateLimited, err)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %v", generation.ErrAuthFailure, err)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %v", generation.ErrTimeout, err)
	case code >= 500:
		return fmt.Errorf("%w: %v", generation.ErrServerFault, err)
	case code >= 400:
		return fmt.Errorf("%w: %v", generation.ErrClientFault, err)
	default:
		return fmt.Errorf("%w: %v", generation.ErrServerFault, err)
	}
}
