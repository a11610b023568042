package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidatePayload checks that raw parses as a JSON object and contains
// every catalog-declared top-level field. It returns the parsed document on
// success. Deeper per-template schema checks are an extension point, not
// part of the core contract.
//
// Payloads often arrive fenced in markdown code blocks; the fence is
// stripped before parsing since it carries no information.
func ValidatePayload(raw string, requiredFields []string) (map[string]json.RawMessage, error) {
	trimmed := stripCodeFence(raw)
	if strings.TrimSpace(trimmed) == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %v", ErrInvalidPayload, err)
	}
	// A literal null unmarshals into a nil map without error.
	if doc == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: null", ErrInvalidPayload)
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := doc[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s",
			ErrInvalidPayload, strings.Join(missing, ", "))
	}

	return doc, nil
}

// stripCodeFence removes a surrounding ```json ... ``` or ``` ... ``` fence
// if present, returning the inner text.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON" or empty).
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
