// Package entities contains core domain data structures.
package entities

import (
	"encoding/json"
	"time"
)

// Source identifies the platform an evidence record was collected from.
type Source string

// Evidence sources. The set is closed.
const (
	SourceGitHub Source = "github"
	SourceGoogle Source = "google"
	SourceAWS    Source = "aws"
	SourceManual Source = "manual"
)

// AllSources lists every valid source, in partition scan order.
var AllSources = []Source{SourceGitHub, SourceGoogle, SourceAWS, SourceManual}

// SummarySources are the sources reported by the cross-source summary rollup.
var SummarySources = []Source{SourceGitHub, SourceGoogle, SourceAWS}

// IsValid reports whether s is one of the known sources.
func (s Source) IsValid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// Status is the compliance verdict of a check.
type Status string

// Compliance statuses.
const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusPartial Status = "partial"
	StatusUnknown Status = "unknown"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPass, StatusFail, StatusPartial, StatusUnknown:
		return true
	}
	return false
}

// Score thresholds shared by every scoring rule.
const (
	PassThreshold    = 80
	PartialThreshold = 50
)

// ClampScore bounds score to [0,100].
func ClampScore(score int) int {
	return max(0, min(100, score))
}

// StatusForScore maps a score to pass (>=80), partial (>=50) or fail.
func StatusForScore(score int) Status {
	switch {
	case score >= PassThreshold:
		return StatusPass
	case score >= PartialThreshold:
		return StatusPartial
	default:
		return StatusFail
	}
}

// Summary is the scored outcome of a check.
type Summary struct {
	Status Status   `json:"status"`
	Issues []string `json:"issues"`
	Score  *int     `json:"score,omitempty"`
}

// NewScoredSummary builds a summary whose status is derived from the clamped score.
func NewScoredSummary(score int, issues []string) Summary {
	score = ClampScore(score)
	if issues == nil {
		issues = []string{}
	}
	return Summary{
		Status: StatusForScore(score),
		Issues: issues,
		Score:  &score,
	}
}

// EvidenceRecord is one immutable, timestamped compliance observation.
type EvidenceRecord struct {
	ID        string            `json:"id"`
	Source    Source            `json:"source"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Data      json.RawMessage   `json:"data"`
	Summary   Summary           `json:"summary"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EvidenceQuery filters a ledger listing. Zero values mean "unset".
type EvidenceQuery struct {
	Source Source
	Type   string
	Since  time.Time
	Until  time.Time
	Limit  int

	// Metadata keeps records carrying every listed key with the same value.
	Metadata map[string]string
}

// Matches reports whether rec satisfies the type, time and metadata filters.
// Source is applied by partition selection, not here.
func (q EvidenceQuery) Matches(rec *EvidenceRecord) bool {
	if q.Type != "" && rec.Type != q.Type {
		return false
	}
	for k, v := range q.Metadata {
		if got, ok := rec.Metadata[k]; !ok || got != v {
			return false
		}
	}
	if !q.Since.IsZero() && rec.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && rec.Timestamp.After(q.Until) {
		return false
	}
	return true
}

// MalformedRecord describes a stored unit that could not be decoded during a scan.
type MalformedRecord struct {
	Path string
	Err  error
}

func (m MalformedRecord) Error() string {
	return "malformed evidence record " + m.Path + ": " + m.Err.Error()
}

func (m MalformedRecord) Unwrap() error { return m.Err }
