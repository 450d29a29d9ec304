package types

import "time"

// RunSummary holds the counts reported at the end of a run.
type RunSummary struct {
	RunID          string            `json:"run_id"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	Fetched        int               `json:"fetched"`
	Extracted      int               `json:"extracted"`
	Duplicates     int               `json:"duplicate"`
	Irrelevant     int               `json:"irrelevant"`
	Rewritten      int               `json:"rewritten"`
	Rejected       int               `json:"rejected"`
	Failed         int               `json:"failed"`
	Persisted      int               `json:"persisted"`
	SourcesFailed  int               `json:"sources_failed"`
	FailuresByKind map[ErrorKind]int `json:"failures_by_kind"`
	StoppedEarly   bool              `json:"stopped_early"`
	StopReason     string            `json:"stop_reason,omitempty"`
	DryRun         bool              `json:"dry_run,omitempty"`
	NextRun        time.Time         `json:"next_run,omitempty"`
}

func NewRunSummary(runID string, startedAt time.Time) *RunSummary {
	return &RunSummary{
		RunID:          runID,
		StartedAt:      startedAt,
		FailuresByKind: make(map[ErrorKind]int),
	}
}

// RecordFailure counts an error by kind. Errors outside the taxonomy are
// not counted by kind.
func (s *RunSummary) RecordFailure(err error) {
	if kind, ok := KindOf(err); ok {
		s.FailuresByKind[kind]++
	}
}

// Processed is the number of articles that reached a terminal state.
func (s *RunSummary) Processed() int {
	return s.Duplicates + s.Failed + s.Persisted
}

func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
