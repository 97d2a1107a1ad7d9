// Package app wires the configured components into a ready Runner. Both
// commands share it.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"remote-job-scraper/internal/aggregator"
	"remote-job-scraper/internal/browser"
	"remote-job-scraper/internal/config"
	"remote-job-scraper/internal/normalize"
	"remote-job-scraper/internal/notify"
	"remote-job-scraper/internal/runner"
	"remote-job-scraper/internal/scraper/sources"
	"remote-job-scraper/internal/store"
)

type App struct {
	Config   *config.Config
	Store    *store.Store
	Runner   *runner.Runner
	Notifier notify.Notifier
}

// Build creates the store, scrapers, browser provider and notifier described
// by cfg. client may be nil.
func Build(cfg *config.Config, client *http.Client, logger *slog.Logger) (*App, error) {
	st := store.New(cfg.OutputDir, logger)
	agg := aggregator.New(normalize.New(), cfg.DelayBetweenSources, logger)

	scrapers := sources.Build(cfg, client, logger)
	enabled := make(map[string]bool, len(cfg.Sources))
	for _, src := range cfg.Sources {
		enabled[src.Name] = src.Enabled
	}

	notifier, err := notify.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}

	opts := runner.Options{
		Scrapers:     scrapers,
		Enabled:      enabled,
		KeywordDelay: cfg.DelayBetweenKeywords,
		Notifier:     notifier,
	}
	if cfg.Browser.Enabled {
		opts.Browser = browser.NewPlaywright(browser.Options{
			Headless:    cfg.Browser.Headless,
			UserAgent:   cfg.UserAgent,
			CookiesPath: cfg.Browser.CookiesPath,
			Timeout:     cfg.Browser.WaitTimeout,
		}, logger)
	}

	return &App{
		Config:   cfg,
		Store:    st,
		Runner:   runner.New(agg, st, opts, logger),
		Notifier: notifier,
	}, nil
}

// Request builds a run request from the command line: explicit keywords win
// over the configured list and every name in disable is switched off.
func (a *App) Request(keywords, disable []string, noBrowser bool) runner.Request {
	if len(keywords) == 0 {
		keywords = a.Config.Keywords
	}
	var overrides map[string]bool
	if len(disable) > 0 {
		overrides = make(map[string]bool, len(disable))
		for _, name := range disable {
			overrides[name] = false
		}
	}
	return runner.Request{
		Keywords:  keywords,
		Sources:   overrides,
		NoBrowser: noBrowser || !a.Config.Browser.Enabled,
	}
}
