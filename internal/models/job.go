package models

import "time"

// DateLayout is the canonical date format used when a source does not report one.
const DateLayout = "2006-01-02"

// DefaultLocation is assigned to postings whose source did not report a location.
const DefaultLocation = "Remote"

// JobPosting is the canonical record produced by the normalizer and persisted
// by the keyword store. Field names double as the CSV/JSON schema.
type JobPosting struct {
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	Source          string    `json:"source"`
	URL             string    `json:"url"`
	DatePosted      string    `json:"date_posted"`
	Keyword         string    `json:"keyword"`
	IsCompanyDirect bool      `json:"is_company_direct"`
	LastUpdated     time.Time `json:"last_updated"`
}

// RawListing is what a source adapter reports for one card on a listing page.
// Empty strings mean "not reported".
type RawListing struct {
	Title      string
	Company    string
	Location   string
	URL        string
	DatePosted string
	//nil when the source does not know
	IsCompanyDirect *bool
}

// IdentityKey recognizes the same posting across sources within one run.
// Both fields are lower-cased.
type IdentityKey struct {
	Title   string
	Company string
}
