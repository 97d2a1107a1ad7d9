package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		template string
		keyword  string
		want     string
	}{
		{
			name:     "query placeholder",
			base:     "https://weworkremotely.com",
			template: "/remote-jobs/search?term={keyword}",
			keyword:  "full stack",
			want:     "https://weworkremotely.com/remote-jobs/search?term=full+stack",
		},
		{
			name:     "path placeholder",
			base:     "https://remoteok.com",
			template: "/remote-{keyword}-jobs",
			keyword:  "software-engineer",
			want:     "https://remoteok.com/remote-software-engineer-jobs",
		},
		{
			name:     "path placeholder with space",
			base:     "https://remoteok.com",
			template: "/remote-{keyword}-jobs",
			keyword:  " c sharp ",
			want:     "https://remoteok.com/remote-c%20sharp-jobs",
		},
		{
			name:     "base with trailing slash",
			base:     "https://remote.co/",
			template: "/remote-jobs/search/?search_keywords={keyword}",
			keyword:  "c++",
			want:     "https://remote.co/remote-jobs/search/?search_keywords=c%2B%2B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSearchURL(tt.base, tt.template, tt.keyword)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveURL(t *testing.T) {
	got, err := ResolveURL("https://weworkremotely.com", "/remote-jobs/acme-engineer")
	require.NoError(t, err)
	assert.Equal(t, "https://weworkremotely.com/remote-jobs/acme-engineer", got)

	got, err = ResolveURL("https://remote.co", "https://jobs.example.com/1")
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.example.com/1", got)

	got, err = ResolveURL("https://remote.co", "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}
