package dedup

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"remote-job-scraper/internal/models"
)

// RunDeduplicator remembers which postings were admitted during one keyword's
// scraping pass. It is owned by a single pass and is not safe for concurrent use.
type RunDeduplicator struct {
	seen  map[models.IdentityKey]struct{}
	lower cases.Caser
}

func NewRunDeduplicator() *RunDeduplicator {
	return &RunDeduplicator{
		seen:  make(map[models.IdentityKey]struct{}),
		lower: cases.Lower(language.Und),
	}
}

// Admit returns true the first time a (title, company) pair is seen and false
// for every later posting with the same pair, whatever its source or URL.
func (d *RunDeduplicator) Admit(job models.JobPosting) bool {
	key := d.key(job)
	if _, exists := d.seen[key]; exists {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Seen is the number of distinct identities admitted so far.
func (d *RunDeduplicator) Seen() int {
	return len(d.seen)
}

// Reset forgets every admitted identity.
func (d *RunDeduplicator) Reset() {
	clear(d.seen)
}

func (d *RunDeduplicator) key(job models.JobPosting) models.IdentityKey {
	return models.IdentityKey{
		Title:   d.lower.String(job.Title),
		Company: d.lower.String(job.Company),
	}
}
