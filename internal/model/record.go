package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/refmatch/internal/table"
)

// MatchResult is the best canonical candidate for one source row.
// Match is empty and Found is false when nothing scored above the floor.
type MatchResult struct {
	Row   int
	Match string
	Found bool
	Score int
}

// Matched reports whether the result clears threshold (strictly greater).
func (r MatchResult) Matched(threshold int) bool {
	return r.Score > threshold
}

// ReconciledDataset is the output of a reconcile run
type ReconciledDataset struct {
	// Matched holds matched rows joined with canonical attributes
	Matched *table.Table
	// Unmatched holds rows at or below the threshold
	Unmatched *table.Table
	// Combined is Matched followed by Unmatched, written as the matching sheet
	Combined *table.Table
	// Procedures is the second source sheet, passed through unchanged
	Procedures *table.Table

	Summary RunSummary
}

// RunSummary records counts and timings for one run
type RunSummary struct {
	RunID          string                   `json:"run_id" yaml:"run_id"`
	StartedAt      time.Time                `json:"started_at" yaml:"started_at"`
	Threshold      int                      `json:"threshold" yaml:"threshold"`
	SourceRows     int                      `json:"source_rows" yaml:"source_rows"`
	CanonicalRows  int                      `json:"canonical_rows" yaml:"canonical_rows"`
	MatchedRows    int                      `json:"matched_rows" yaml:"matched_rows"`
	UnmatchedRows  int                      `json:"unmatched_rows" yaml:"unmatched_rows"`
	JoinedRows     int                      `json:"joined_rows" yaml:"joined_rows"`
	Collisions     int                      `json:"collisions" yaml:"collisions"`
	DegradedRows   int                      `json:"degraded_rows" yaml:"degraded_rows"`
	StageDurations map[string]time.Duration `json:"stage_durations" yaml:"stage_durations"`
}

// NewRunSummary starts a summary with a fresh run ID
func NewRunSummary(threshold int) RunSummary {
	return RunSummary{
		RunID:          uuid.NewString(),
		StartedAt:      time.Now(),
		Threshold:      threshold,
		StageDurations: make(map[string]time.Duration),
	}
}
