package domain

import (
	"errors"
	"time"
)

// Definition-specific validation errors
var (
	// ErrDefinitionIDEmpty is returned when a task definition ID is empty.
	ErrDefinitionIDEmpty = errors.New("task definition ID cannot be empty")

	// ErrDefinitionTemplateEmpty is returned when a task definition has no input template.
	ErrDefinitionTemplateEmpty = errors.New("task definition input template cannot be empty")

	// ErrDefinitionNoOutputFields is returned when a task definition declares no
	// required top-level output fields, which would make validation vacuous.
	ErrDefinitionNoOutputFields = errors.New("task definition must declare at least one output field")
)

// RunPolicy carries generation parameters for one task definition.
// The queue engine passes these through to the generation service
// without interpreting them.
type RunPolicy struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"top_p,omitempty"`
	MaxOutputTokens int32    `json:"max_output_tokens,omitempty"`
	StopSequences   []string `json:"stop_sequences,omitempty"`
}

// TaskDefinition is a reusable analysis template identified by its ID.
// Republishing a definition with the same ID overwrites the template,
// output contract and run policy (upsert semantics), never duplicates.
type TaskDefinition struct {
	ID            string    `json:"id"`
	InputTemplate string    `json:"input_template"`
	OutputFields  []string  `json:"output_fields"`
	RunPolicy     RunPolicy `json:"run_policy"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks that the definition satisfies its invariants.
func (d *TaskDefinition) Validate() error {
	if d.ID == "" {
		return ErrDefinitionIDEmpty
	}
	if d.InputTemplate == "" {
		return ErrDefinitionTemplateEmpty
	}
	if len(d.OutputFields) == 0 {
		return ErrDefinitionNoOutputFields
	}
	return nil
}
