// Package audit keeps a queryable log of completed pipeline runs.
package audit

import "time"

// Kind describes which operation a run performed.
type Kind string

const (
	KindSearch Kind = "search"
	KindAdapt  Kind = "adapt"
)

// Entry is a single run log record.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	Kind      Kind          `json:"kind"`
	Input     string        `json:"input"`  // the optimized query or the adaptation goal
	Source    string        `json:"source"` // local or web; empty for adapt runs
	Results   int           `json:"results"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}
