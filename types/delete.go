package types

import "time"

// DeleteStatus is the terminal state of one deletion attempt.
type DeleteStatus string

const (
	DeleteSucceeded DeleteStatus = "succeeded"
	DeleteFailed    DeleteStatus = "failed"
	DeleteSkipped   DeleteStatus = "skipped"
	DeleteSimulated DeleteStatus = "simulated"
)

// DeleteOutcome records one deletion attempt. Error carries the
// failure message on Failed outcomes and the skip reason on Skipped
// ones; it is empty otherwise.
type DeleteOutcome struct {
	ResourceID   string       `json:"resource_id"`
	ResourceName string       `json:"resource_name"`
	Region       string       `json:"region"`
	Status       DeleteStatus `json:"status"`
	Error        string       `json:"error,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// DeleteSummary is a running tally of a batch delete. Outcomes are
// appended one at a time so callers can report progress live.
type DeleteSummary struct {
	Total     int             `json:"total"`
	Deleted   int             `json:"deleted"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Simulated int             `json:"simulated"`
	Outcomes  []DeleteOutcome `json:"outcomes"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time,omitzero"`
}

// NewDeleteSummary starts an empty summary stamped with the current time.
func NewDeleteSummary() *DeleteSummary {
	return &DeleteSummary{StartTime: time.Now().UTC()}
}

// Add appends an outcome and updates the counters.
func (s *DeleteSummary) Add(outcome DeleteOutcome) {
	s.Outcomes = append(s.Outcomes, outcome)
	s.Total++

	switch outcome.Status {
	case DeleteSucceeded:
		s.Deleted++
	case DeleteFailed:
		s.Failed++
	case DeleteSkipped:
		s.Skipped++
	case DeleteSimulated:
		s.Simulated++
	}
}

// Complete stamps the end time.
func (s *DeleteSummary) Complete() {
	s.EndTime = time.Now().UTC()
}

// Duration returns how long the batch ran. Zero until Complete is called.
func (s *DeleteSummary) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
