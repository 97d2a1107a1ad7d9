package aggregator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remote-job-scraper/internal/models"
	"remote-job-scraper/internal/normalize"
	"remote-job-scraper/internal/scraper"
)

type fakeScraper struct {
	name     string
	browser  bool
	listings []models.RawListing
	err      error
	panicMsg string
	calls    int
	onScrape func()
}

func (f *fakeScraper) Name() string       { return f.name }
func (f *fakeScraper) NeedsBrowser() bool { return f.browser }

func (f *fakeScraper) Scrape(_ context.Context, _ string, _ playwright.Page) ([]models.RawListing, error) {
	f.calls++
	if f.onScrape != nil {
		f.onScrape()
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.listings, f.err
}

func newAggregator() *Aggregator {
	today := func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }
	return New(normalize.NewWithClock(today), 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCollect_CrossSourceDuplicateKeepsFirst(t *testing.T) {
	first := &fakeScraper{name: "Adapter1", listings: []models.RawListing{
		{Title: "Engineer", Company: "Acme", URL: "u1"},
	}}
	second := &fakeScraper{name: "Adapter2", listings: []models.RawListing{
		{Title: "engineer", Company: "ACME", URL: "u2"},
	}}

	result, err := newAggregator().Collect(context.Background(), "python", []scraper.Scraper{first, second}, nil)
	require.NoError(t, err)

	require.Len(t, result.Jobs, 1)
	job := result.Jobs[0]
	assert.Equal(t, "u1", job.URL)
	assert.Equal(t, "Adapter1", job.Source)
	assert.Equal(t, "python", job.Keyword)
	assert.Equal(t, "Remote", job.Location)
	assert.Equal(t, "2025-03-14", job.DatePosted)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, 1, result.Sources[0].Admitted)
	assert.Equal(t, 1, result.Sources[1].Duplicates)
	assert.Equal(t, 0, result.Sources[1].Admitted)
}

func TestCollect_FailingSourceDoesNotStopOthers(t *testing.T) {
	broken := &fakeScraper{name: "Broken", err: errors.New("HTTP 503")}
	healthy := &fakeScraper{name: "Healthy", listings: []models.RawListing{
		{Title: "Backend Dev", Company: "Initech", URL: "https://initech.example/1"},
		{Title: "Frontend Dev", Company: "Initech", URL: "https://initech.example/2"},
	}}

	result, err := newAggregator().Collect(context.Background(), "go", []scraper.Scraper{broken, healthy}, nil)
	require.NoError(t, err)

	assert.Len(t, result.Jobs, 2)
	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "Broken", failed[0].Source)
	assert.Contains(t, failed[0].Reason, "HTTP 503")
	assert.Equal(t, StatusOK, result.Sources[1].Status)
}

func TestCollect_PanickingSourceIsIsolated(t *testing.T) {
	bad := &fakeScraper{name: "Bad", panicMsg: "nil selection"}
	good := &fakeScraper{name: "Good", listings: []models.RawListing{{Title: "SRE", Company: "Hooli"}}}

	result, err := newAggregator().Collect(context.Background(), "sre", []scraper.Scraper{bad, good}, nil)
	require.NoError(t, err)

	require.Len(t, result.Jobs, 1)
	assert.Equal(t, StatusFailed, result.Sources[0].Status)
	assert.Contains(t, result.Sources[0].Reason, "nil selection")
}

func TestCollect_BrowserSourceSkippedWithoutPage(t *testing.T) {
	headless := &fakeScraper{name: "Headless", browser: true, listings: []models.RawListing{{Title: "X", Company: "Y"}}}
	plain := &fakeScraper{name: "Plain", listings: []models.RawListing{{Title: "Analyst", Company: "Umbrella"}}}

	result, err := newAggregator().Collect(context.Background(), "data", []scraper.Scraper{headless, plain}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, headless.calls)
	assert.Len(t, result.Jobs, 1)
	skipped := result.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, SkipReasonNoBrowser, skipped[0].Reason)
	assert.Empty(t, result.Failed())
}

func TestCollect_RejectsEmptyListings(t *testing.T) {
	s := &fakeScraper{name: "Board", listings: []models.RawListing{
		{Title: "  ", Company: "", URL: "https://example.com/ghost"},
		{Title: "Engineer", Company: "", URL: "https://example.com/1"},
		{Title: "", Company: "Acme", URL: "https://example.com/2"},
	}}

	result, err := newAggregator().Collect(context.Background(), "python", []scraper.Scraper{s}, nil)
	require.NoError(t, err)

	assert.Len(t, result.Jobs, 2)
	assert.Equal(t, 3, result.Sources[0].Found)
	assert.Equal(t, 1, result.Sources[0].Rejected)
}

func TestCollect_SameSourceDuplicates(t *testing.T) {
	s := &fakeScraper{name: "Board", listings: []models.RawListing{
		{Title: "Engineer", Company: "Acme", URL: "u1"},
		{Title: "Engineer ", Company: " Acme", URL: "u9"},
	}}

	result, err := newAggregator().Collect(context.Background(), "python", []scraper.Scraper{s}, nil)
	require.NoError(t, err)

	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "u1", result.Jobs[0].URL)
}

func TestCollect_NoSources(t *testing.T) {
	result, err := newAggregator().Collect(context.Background(), "python", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Jobs)
	assert.Empty(t, result.Jobs)
}

func TestCollect_InterruptedReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &fakeScraper{
		name:     "First",
		listings: []models.RawListing{{Title: "Engineer", Company: "Acme", URL: "u1"}},
		onScrape: cancel,
	}
	second := &fakeScraper{name: "Second", listings: []models.RawListing{{Title: "Other", Company: "Co"}}}

	agg := New(normalize.New(), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	result, err := agg.Collect(ctx, "python", []scraper.Scraper{first, second}, nil)

	require.ErrorIs(t, err, ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.calls)
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "u1", result.Jobs[0].URL)
}
