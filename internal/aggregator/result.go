package aggregator

import (
	"time"

	"remote-job-scraper/internal/models"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// SourceReport describes what one source contributed to a keyword pass.
type SourceReport struct {
	Source     string        `json:"source"`
	Status     Status        `json:"status"`
	Found      int           `json:"found"`
	Admitted   int           `json:"admitted"`
	Rejected   int           `json:"rejected"`
	Duplicates int           `json:"duplicates"`
	Reason     string        `json:"reason,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

type Result struct {
	Keyword string
	Jobs    []models.JobPosting
	Sources []SourceReport
}

func (r Result) Failed() []SourceReport {
	return r.withStatus(StatusFailed)
}

func (r Result) Skipped() []SourceReport {
	return r.withStatus(StatusSkipped)
}

func (r Result) withStatus(status Status) []SourceReport {
	var out []SourceReport
	for _, s := range r.Sources {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}
