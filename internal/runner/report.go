package runner

import (
	"time"

	"github.com/google/uuid"

	"remote-job-scraper/internal/aggregator"
	"remote-job-scraper/internal/store"
)

type Request struct {
	//zero means Run picks one
	ID       uuid.UUID `json:"-"`
	Keywords []string  `json:"keywords"`
	//per-run source overrides, name -> enabled
	Sources   map[string]bool `json:"sources,omitempty"`
	NoBrowser bool            `json:"no_browser,omitempty"`

	//called after each keyword is saved
	Progress func(KeywordReport) `json:"-"`
}

type KeywordReport struct {
	Keyword string                    `json:"keyword"`
	Found   int                       `json:"found"`
	Sources []aggregator.SourceReport `json:"sources"`
	Merge   store.MergeResult         `json:"merge"`
	Error   string                    `json:"error,omitempty"`
}

// Failed lists the sources that errored for this keyword.
func (k KeywordReport) Failed() []aggregator.SourceReport {
	return aggregator.Result{Sources: k.Sources}.Failed()
}

func (k KeywordReport) Skipped() []aggregator.SourceReport {
	return aggregator.Result{Sources: k.Sources}.Skipped()
}

type Report struct {
	ID               uuid.UUID       `json:"id"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       time.Time       `json:"finished_at"`
	BrowserAvailable bool            `json:"browser_available"`
	Interrupted      bool            `json:"interrupted"`
	Keywords         []KeywordReport `json:"keywords"`
}

func (r Report) TotalFound() int {
	n := 0
	for _, k := range r.Keywords {
		n += k.Found
	}
	return n
}

func (r Report) TotalInserted() int {
	n := 0
	for _, k := range r.Keywords {
		n += k.Merge.Inserted
	}
	return n
}

// HasErrors reports whether any keyword failed to save.
func (r Report) HasErrors() bool {
	for _, k := range r.Keywords {
		if k.Error != "" {
			return true
		}
	}
	return false
}
