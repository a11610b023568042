package generation

import (
	"context"

	"github.com/trellisdata/trellis/internal/domain"
)

// Usage reports token accounting for one completed call, when the upstream
// service provides it.
type Usage struct {
	InputTokens  int32 `json:"input_tokens"`
	OutputTokens int32 `json:"output_tokens"`
}

// Completion is the raw outcome of one successful generation call. Payload
// is the unparsed model output; validation against the catalog's output
// contract happens separately in ValidatePayload.
type Completion struct {
	Payload string
	Usage   *Usage
}

// Generator defines the interface for the external generation service.
// This interface is the boundary between the queue engine and the LLM
// integration: the engine passes the rendered input and the definition's
// run policy through without interpreting either.
type Generator interface {
	// Complete sends one rendered input to the generation service and
	// returns its raw payload. Errors are classified with the sentinels in
	// errors.go so the caller's retry controller can distinguish transient
	// from fatal failures. The call may execute more than once across
	// retries; only committed results are exactly-once.
	Complete(ctx context.Context, prompt string, policy domain.RunPolicy) (*Completion, error)
}
