package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"remote-job-scraper/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	direct := true

	tests := []struct {
		name   string
		raw    models.RawListing
		want   models.JobPosting
		wantOK bool
	}{
		{
			name: "defaults for missing optional fields",
			raw:  models.RawListing{Title: "Engineer", Company: "Acme", URL: "https://a/1"},
			want: models.JobPosting{
				Title:      "Engineer",
				Company:    "Acme",
				Location:   "Remote",
				Source:     "Board",
				URL:        "https://a/1",
				DatePosted: "2026-03-14",
				Keyword:    "python",
			},
			wantOK: true,
		},
		{
			name: "reported values are kept",
			raw: models.RawListing{
				Title:           "  Senior\n  Engineer ",
				Company:         "Acme",
				Location:        "Europe",
				URL:             " https://a/2 ",
				DatePosted:      "3d",
				IsCompanyDirect: &direct,
			},
			want: models.JobPosting{
				Title:           "Senior Engineer",
				Company:         "Acme",
				Location:        "Europe",
				Source:          "Board",
				URL:             "https://a/2",
				DatePosted:      "3d",
				Keyword:         "python",
				IsCompanyDirect: true,
			},
			wantOK: true,
		},
		{
			name: "company only is accepted",
			raw:  models.RawListing{Company: "Acme"},
			want: models.JobPosting{
				Company:    "Acme",
				Location:   "Remote",
				Source:     "Board",
				DatePosted: "2026-03-14",
				Keyword:    "python",
			},
			wantOK: true,
		},
		{
			name:   "whitespace-only title and company are rejected",
			raw:    models.RawListing{Title: "  ", Company: "\t\n", URL: "https://a/3"},
			wantOK: false,
		},
	}

	n := NewWithClock(fixedClock)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Normalize(tt.raw, "Board", "python")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_ComposesUnicode(t *testing.T) {
	n := NewWithClock(fixedClock)

	//"e" followed by a combining acute accent
	got, ok := n.Normalize(models.RawListing{Title: "Cafe\u0301 Dev", Company: "X"}, "Board", "k")

	assert.True(t, ok)
	assert.Equal(t, "Caf\u00e9 Dev", got.Title)
}
