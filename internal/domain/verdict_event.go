package domain

import (
	"time"

	"github.com/kavikulu/shadowmine/pkg/pattern"
)

// VerdictEvent detector verdict for a named sequence.
type VerdictEvent struct {
	Timestamp time.Time      `json:"ts"`
	RunID     string         `json:"run_id"`
	Sequence  string         `json:"sequence"`
	Verdict   pattern.Result `json:"verdict"`
}

// NewVerdictEvent creates a new VerdictEvent.
func NewVerdictEvent(timestamp time.Time, runID, sequence string, verdict pattern.Result) VerdictEvent {
	return VerdictEvent{
		Timestamp: timestamp,
		RunID:     runID,
		Sequence:  sequence,
		Verdict:   verdict,
	}
}

// VerdictEventRecord bundles a verdict event with its log index.
type VerdictEventRecord struct {
	Index uint64
	Event VerdictEvent
}
