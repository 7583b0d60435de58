package runner

import (
	"time"

	"github.com/dmitrymomot/mailmerge/pkg/mailer"
	"github.com/dmitrymomot/mailmerge/pkg/recipients"
)

// JobResult is the recorded outcome of one SendJob.
type JobResult struct {
	AttemptedAt time.Time
	Err         error
	Status      Status
	Kind        mailer.Kind // failure classification; empty unless failed
	Job         recipients.SendJob
	Attempts    int
}

// ErrorMessage returns the failure message, or "" for successful jobs.
func (r JobResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Progress is a snapshot of a run.
type Progress struct {
	State   State `json:"state"`
	Total   int   `json:"total"`
	Sent    int   `json:"sent"`
	Failed  int   `json:"failed"`
	Skipped int   `json:"skipped"`
	Pending int   `json:"pending"`
}

// Processed returns the number of jobs with a result.
func (p Progress) Processed() int {
	return p.Sent + p.Failed + p.Skipped
}

// Summary is returned by Run.
type Summary struct {
	Results []JobResult
	Progress
}

// Failures returns the failed results in row order.
func (s *Summary) Failures() []JobResult {
	var out []JobResult
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			out = append(out, r)
		}
	}
	return out
}
