// Package sources builds the configured scrapers in configuration order.
package sources

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"remote-job-scraper/internal/browser"
	"remote-job-scraper/internal/config"
	"remote-job-scraper/internal/scraper"
	"remote-job-scraper/internal/scraper/board"
	"remote-job-scraper/internal/scraper/headless"
)

// Build returns one scraper per configured source, enabled or not, in the
// order they appear in cfg.Sources.
func Build(cfg *config.Config, client *http.Client, logger *slog.Logger) []scraper.Scraper {
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	screenshots := browser.NewScreenshotDebugger(filepath.Join(cfg.LogDir, "screenshots"), logger)

	scrapers := make([]scraper.Scraper, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if src.RequiresBrowser {
			scrapers = append(scrapers, headless.NewHeadlessScraper(src, cfg.Browser.WaitTimeout, screenshots, logger))
			continue
		}
		scrapers = append(scrapers, board.NewBoardScraper(src, client, logger))
	}
	return scrapers
}
