package api

import (
	"time"

	"github.com/trellisdata/trellis/internal/domain"
)

// Common request/response structures

// RunRequest defines the payload for triggering a bounded worker run.
type RunRequest struct {
	// MaxItems bounds the run; administrative runs are always finite.
	MaxItems int    `json:"max_items"           validate:"required,gt=0,lte=10000"`
	RegionID *int64 `json:"region_id,omitempty"`
}

// RunResponse reports the outcome of a bounded run. Stranded instances had
// a terminal commit fail; they are still running in the ledger and need a
// reset, which is why they are reported apart from failures.
type RunResponse struct {
	Claimed  int `json:"claimed"`
	Done     int `json:"done"`
	Failed   int `json:"failed"`
	Stranded int `json:"stranded"`
}

// ResetRequest defines the payload for the administrative reset of failed
// or stuck-running instances back to pending.
type ResetRequest struct {
	Statuses []string `json:"statuses"            validate:"required,min=1,dive,oneof=failed running"`
	RegionID *int64   `json:"region_id,omitempty"`
}

// ResetResponse reports how many instances were re-enqueued.
type ResetResponse struct {
	Reset int64 `json:"reset"`
}

// ProgressResponse aggregates instance counts per status from the progress
// ledger.
type ProgressResponse struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// ErrorEntryResponse is one audit log record.
type ErrorEntryResponse struct {
	OccupationID int64     `json:"occupation_id"`
	RegionID     int64     `json:"region_id"`
	TaskID       string    `json:"task_id"`
	Message      string    `json:"message"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ErrorsResponse is the error-log listing.
type ErrorsResponse struct {
	Errors []ErrorEntryResponse `json:"errors"`
}

// DefinitionRequest defines the payload for publishing a task definition.
// The ID comes from the URL; publishing an existing ID overwrites it.
type DefinitionRequest struct {
	InputTemplate string           `json:"input_template" validate:"required"`
	OutputFields  []string         `json:"output_fields"  validate:"required,min=1,dive,required"`
	RunPolicy     domain.RunPolicy `json:"run_policy"`
}

// SeedRequest defines the payload for seeding pending instances for one
// task definition across all imported occupations and regions.
type SeedRequest struct {
	TaskID   string `json:"task_id"  validate:"required"`
	Priority int    `json:"priority" validate:"gte=0"`
}

// SeedResponse reports how many instances were created.
type SeedResponse struct {
	Created int64 `json:"created"`
}
