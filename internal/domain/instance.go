package domain

import (
	"errors"
	"fmt"
	"time"
)

// InstanceStatus is the closed set of task instance states.
type InstanceStatus string

// Possible instance status values. Done and failed are terminal from the
// engine's perspective; re-entry to pending is an administrative reset.
const (
	InstanceStatusPending InstanceStatus = "pending"
	InstanceStatusRunning InstanceStatus = "running"
	InstanceStatusDone    InstanceStatus = "done"
	InstanceStatusFailed  InstanceStatus = "failed"
)

// ErrInvalidInstanceStatus is returned when a status value is outside the
// closed enumeration.
var ErrInvalidInstanceStatus = errors.New("invalid task instance status")

// IsValid reports whether s is one of the known status values.
func (s InstanceStatus) IsValid() bool {
	switch s {
	case InstanceStatusPending, InstanceStatusRunning, InstanceStatusDone, InstanceStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether s is a state the engine never leaves on its own.
func (s InstanceStatus) IsTerminal() bool {
	return s == InstanceStatusDone || s == InstanceStatusFailed
}

// ParseInstanceStatus converts a raw string into an InstanceStatus,
// rejecting values outside the enumeration.
func ParseInstanceStatus(raw string) (InstanceStatus, error) {
	s := InstanceStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidInstanceStatus, raw)
	}
	return s, nil
}

// InstanceKey identifies one unit of work: a task definition applied to
// one occupation in one region. Exactly one instance exists per key.
type InstanceKey struct {
	OccupationID int64  `json:"occupation_id"`
	RegionID     int64  `json:"region_id"`
	TaskID       string `json:"task_id"`
}

// String renders the key for log fields.
func (k InstanceKey) String() string {
	return fmt.Sprintf("%d/%d/%s", k.OccupationID, k.RegionID, k.TaskID)
}

// TaskInstance is one row of the work ledger. Attempts counts terminal
// failures, not absorbed retries. LastError is a truncated summary; the
// full text of each failed attempt lives in the error log.
type TaskInstance struct {
	ID        int64          `json:"id"`
	Key       InstanceKey    `json:"key"`
	Status    InstanceStatus `json:"status"`
	Attempts  int            `json:"attempts"`
	Priority  int            `json:"priority"`
	LastError string         `json:"last_error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ProgressRecord mirrors a TaskInstance's status for read-side aggregation.
// Every status transition on the instance is paired, in the same commit,
// with the corresponding progress update.
type ProgressRecord struct {
	Key       InstanceKey    `json:"key"`
	Status    InstanceStatus `json:"status"`
	LastError string         `json:"last_error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}
