// Package normalize turns raw adapter listings into canonical job postings.
package normalize

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"remote-job-scraper/internal/models"
)

type Normalizer struct {
	now func() time.Time
}

func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock is used by tests that need a fixed "today".
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize converts raw into a JobPosting. The second return value is false
// when the listing is rejected because both title and company are empty.
func (n *Normalizer) Normalize(raw models.RawListing, source, keyword string) (models.JobPosting, bool) {
	title := cleanText(raw.Title)
	company := cleanText(raw.Company)
	if title == "" && company == "" {
		return models.JobPosting{}, false
	}

	job := models.JobPosting{
		Title:      title,
		Company:    company,
		Location:   cleanText(raw.Location),
		Source:     source,
		URL:        strings.TrimSpace(raw.URL),
		DatePosted: cleanText(raw.DatePosted),
		Keyword:    keyword,
	}

	if job.Location == "" {
		job.Location = models.DefaultLocation
	}
	if job.DatePosted == "" {
		job.DatePosted = n.now().Format(models.DateLayout)
	}
	if raw.IsCompanyDirect != nil {
		job.IsCompanyDirect = *raw.IsCompanyDirect
	}

	return job, true
}

// cleanText composes unicode sequences and collapses runs of whitespace,
// which listing markup is full of.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
