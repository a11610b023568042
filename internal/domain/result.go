package domain

import (
	"encoding/json"
	"time"
)

// ResultPayload holds the single current validated output for an instance
// key. Rows are upsert-only: committing a success for a key that already
// has a result overwrites the payload in place.
type ResultPayload struct {
	Key       InstanceKey     `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ErrorEntry is one append-only audit record of a failed attempt. Entries
// are retained even after an instance eventually succeeds and are never
// read back by the engine itself.
type ErrorEntry struct {
	ID         int64       `json:"id"`
	Key        InstanceKey `json:"key"`
	Message    string      `json:"message"`
	OccurredAt time.Time   `json:"occurred_at"`
}
