package entities

import "time"

// CheckOutcome is the result of one per-entity check execution.
type CheckOutcome string

// Check outcomes.
const (
	OutcomeSucceeded CheckOutcome = "succeeded"
	OutcomeFailed    CheckOutcome = "failed"
)

// CheckRun is one entry of the check-run log.
type CheckRun struct {
	ID         int64        `json:"id"`
	Source     Source       `json:"source"`
	Type       string       `json:"type"`
	Entity     string       `json:"entity"`
	Outcome    CheckOutcome `json:"outcome"`
	Stage      string       `json:"stage,omitempty"`
	Error      string       `json:"error,omitempty"`
	RecordID   string       `json:"record_id,omitempty"`
	Score      *int         `json:"score,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMs int64        `json:"duration_ms"`
}
