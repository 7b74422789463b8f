package domain

import "time"

// JobState enumerates the video generation job lifecycle.
type JobState string

const (
	JobStateIdle      JobState = "idle"
	JobStateSubmitted JobState = "submitted"
	JobStatePolling   JobState = "polling"
	JobStateFetching  JobState = "fetching"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Terminal reports whether the state accepts no further transitions short of
// a new submission.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// JobStatus is the upstream view of a submitted long-running operation.
type JobStatus struct {
	Done        bool
	ResultURI   string
	ErrorDetail string
}

// JobSnapshot is an immutable copy of the poller's current job, safe to hand
// to the presentation layer while the poll loop keeps running.
type JobSnapshot struct {
	ID            string    `json:"id"`
	State         JobState  `json:"state"`
	StatusMessage string    `json:"status_message,omitempty"`
	ResultURI     string    `json:"result_uri,omitempty"`
	Error         string    `json:"error,omitempty"`
	Checks        int       `json:"checks"`
	SubmittedAt   time.Time `json:"submitted_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
