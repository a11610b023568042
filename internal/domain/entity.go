package domain

import "time"

// Occupation is the subject of analysis. Rows are created by an external
// import step and are read-only to the queue engine; Attributes holds the
// flattened record fields exposed to template rendering.
type Occupation struct {
	ID         int64             `json:"id"`
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Region scopes an analysis to a geography. Like occupations, regions are
// seeded externally and never mutated by the engine.
type Region struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
