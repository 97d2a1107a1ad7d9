package headless

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remote-job-scraper/internal/config"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func remoteCoSource() config.SourceConfig {
	src := config.DefaultSources()[2]
	src.BaseURL = "https://remote.co"
	return src
}

//helper start headless browser, skipping when the driver is not installed
func setupPlaywright(t *testing.T) playwright.Page {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Skipf("playwright driver not available: %v", err)
	}
	t.Cleanup(func() { _ = pw.Stop() })

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Skipf("chromium not available: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	page, err := b.NewPage()
	require.NoError(t, err)
	return page
}

func TestHeadlessScraper_NoPage(t *testing.T) {
	s := NewHeadlessScraper(remoteCoSource(), time.Second, nil, discard())

	listings, err := s.Scrape(context.Background(), "python", nil)

	assert.Nil(t, listings)
	assert.ErrorIs(t, err, ErrNoPage)
	assert.True(t, s.NeedsBrowser())
	assert.Equal(t, "Remote.co", s.Name())
}

func TestHeadlessScraper_Scrape_MockPage(t *testing.T) {
	page := setupPlaywright(t)

	mockHTML := `<html><body>
	<div class="job_listing"><a href="/job/1"><span class="position">Python Developer</span><span class="company">Acme</span></a></div>
	<div class="job_listing"><a href="https://acme.example/careers/2"><span class="position">Data Engineer</span><span class="company">Acme</span></a></div>
	</body></html>`

	//route every request back to the mock page
	require.NoError(t, page.Route("**/*", func(route playwright.Route) {
		_ = route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        mockHTML,
		})
	}))

	s := NewHeadlessScraper(remoteCoSource(), 5*time.Second, nil, discard())
	listings, err := s.Scrape(context.Background(), "python", page)
	require.NoError(t, err)

	require.Len(t, listings, 2)
	assert.Equal(t, "Python Developer", listings[0].Title)
	assert.Equal(t, "Acme", listings[0].Company)
	assert.Equal(t, "https://remote.co/job/1", listings[0].URL)
	assert.Equal(t, "https://acme.example/careers/2", listings[1].URL)
}

func TestHeadlessScraper_Scrape_NoListings(t *testing.T) {
	page := setupPlaywright(t)

	require.NoError(t, page.Route("**/*", func(route playwright.Route) {
		_ = route.Fulfill(playwright.RouteFulfillOptions{
			Status: playwright.Int(200),
			Body:   `<html><title>Just a moment...</title><body></body></html>`,
		})
	}))

	s := NewHeadlessScraper(remoteCoSource(), 500*time.Millisecond, nil, discard())
	listings, err := s.Scrape(context.Background(), "python", page)

	assert.Nil(t, listings)
	assert.Error(t, err)
}
