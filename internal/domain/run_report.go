package domain

import (
	"time"

	"github.com/kavikulu/shadowmine/pkg/pattern"
)

// SequenceReport outcome of analyzing one sequence: the verdicts of
// every detector that ran, or the error that stopped them.
type SequenceReport struct {
	Sequence string           `json:"sequence"`
	Verdicts []pattern.Result `json:"verdicts,omitempty"`
	Err      string           `json:"error,omitempty"`
}

// Failed reports whether analysis of the sequence stopped on an error.
func (r SequenceReport) Failed() bool {
	return r.Err != ""
}

// PairReport outcome of cross-coupling analysis for a pair of sequences.
type PairReport struct {
	A       string         `json:"a"`
	B       string         `json:"b"`
	Verdict pattern.Result `json:"verdict,omitempty"`
	Err     string         `json:"error,omitempty"`
}

// Failed reports whether analysis of the pair stopped on an error.
func (r PairReport) Failed() bool {
	return r.Err != ""
}

// RunReport summary of a batch analysis run.
type RunReport struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Elapsed   time.Duration    `json:"elapsed"`
	Sequences []SequenceReport `json:"sequences"`
	Pairs     []PairReport     `json:"pairs,omitempty"`
}

// SignificantCount returns the number of significant verdicts across
// all sequences and pairs in the run.
func (r RunReport) SignificantCount() int {
	n := 0
	for _, s := range r.Sequences {
		for _, v := range s.Verdicts {
			if v.Significant {
				n++
			}
		}
	}
	for _, p := range r.Pairs {
		if !p.Failed() && p.Verdict.Significant {
			n++
		}
	}
	return n
}

// FailedCount returns the number of sequences and pairs whose analysis
// failed.
func (r RunReport) FailedCount() int {
	n := 0
	for _, s := range r.Sequences {
		if s.Failed() {
			n++
		}
	}
	for _, p := range r.Pairs {
		if p.Failed() {
			n++
		}
	}
	return n
}
