// Define an interface for all scrapers
// Ensure consistency

package scraper

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"remote-job-scraper/internal/models"
)

//Scraper defines the interface that all job source adapters must implement
type Scraper interface {
	//Scrape returns the raw listings a source shows for keyword.
	//page is nil when no browser session is available.
	Scrape(ctx context.Context, keyword string, page playwright.Page) ([]models.RawListing, error)

	//Name is the source name (WeWorkRemotely, RemoteOK, ...)
	Name() string

	//NeedsBrowser reports whether Scrape requires a non-nil page
	NeedsBrowser() bool
}
