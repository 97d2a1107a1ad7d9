// Package runner executes one scraping run: it picks the enabled sources,
// owns the browser session and feeds every keyword through the aggregator
// into the store.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"remote-job-scraper/internal/aggregator"
	"remote-job-scraper/internal/browser"
	"remote-job-scraper/internal/models"
	"remote-job-scraper/internal/scraper"
	"remote-job-scraper/internal/store"
)

var (
	ErrUnknownSource = errors.New("unknown source")
	ErrNoKeywords    = errors.New("no keywords requested")
)

type Collector interface {
	Collect(ctx context.Context, keyword string, scrapers []scraper.Scraper, page playwright.Page) (aggregator.Result, error)
}

type Merger interface {
	Merge(keyword string, jobs []models.JobPosting) (store.MergeResult, error)
}

// Notifier receives the report of every finished run.
type Notifier interface {
	Notify(ctx context.Context, report Report) error
}

type Options struct {
	Scrapers []scraper.Scraper
	//source name -> enabled; names missing here are enabled
	Enabled      map[string]bool
	KeywordDelay time.Duration
	//nil disables browser sources
	Browser  browser.SessionProvider
	Notifier Notifier
}

type Runner struct {
	collector Collector
	merger    Merger
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

func New(collector Collector, merger Merger, opts Options, logger *slog.Logger) *Runner {
	return &Runner{
		collector: collector,
		merger:    merger,
		opts:      opts,
		logger:    logger.With("component", "runner"),
		now:       time.Now,
	}
}

// Run processes req.Keywords in order. Cancelling ctx stops the run at the
// next source or keyword boundary; whatever was collected for the current
// keyword is still merged. The returned error is only set for invalid
// requests.
func (r *Runner) Run(ctx context.Context, req Request) (Report, error) {
	keywords := cleanKeywords(req.Keywords)
	if len(keywords) == 0 {
		return Report{}, ErrNoKeywords
	}
	scrapers, err := r.selectScrapers(req.Sources)
	if err != nil {
		return Report{}, err
	}

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	report := Report{
		ID:        id,
		StartedAt: r.now(),
		Keywords:  make([]KeywordReport, 0, len(keywords)),
	}
	logger := r.logger.With("run_id", report.ID.String())
	logger.Info("run started", "keywords", keywords, "sources", scraperNames(scrapers))

	page, release := r.acquireBrowser(ctx, scrapers, req.NoBrowser, logger)
	defer release()
	report.BrowserAvailable = page != nil

	for i, keyword := range keywords {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}
		if i > 0 && r.opts.KeywordDelay > 0 {
			if err := sleep(ctx, r.opts.KeywordDelay); err != nil {
				report.Interrupted = true
				break
			}
		}

		kr, interrupted := r.runKeyword(ctx, keyword, scrapers, page, logger)
		report.Keywords = append(report.Keywords, kr)
		if req.Progress != nil {
			req.Progress(kr)
		}
		if interrupted {
			report.Interrupted = true
			break
		}
	}

	release()
	report.FinishedAt = r.now()
	logger.Info("run finished",
		"found", report.TotalFound(),
		"interrupted", report.Interrupted,
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	if r.opts.Notifier != nil {
		if err := r.opts.Notifier.Notify(context.WithoutCancel(ctx), report); err != nil {
			logger.Warn("notification failed", "err", err)
		}
	}
	return report, nil
}

func (r *Runner) runKeyword(ctx context.Context, keyword string, scrapers []scraper.Scraper, page playwright.Page, logger *slog.Logger) (KeywordReport, bool) {
	logger.Info("collecting keyword", "keyword", keyword)
	result, err := r.collector.Collect(ctx, keyword, scrapers, page)
	interrupted := errors.Is(err, aggregator.ErrInterrupted)
	if err != nil && !interrupted {
		logger.Error("collect failed", "keyword", keyword, "err", err)
	}

	kr := KeywordReport{
		Keyword: keyword,
		Found:   len(result.Jobs),
		Sources: result.Sources,
	}
	if err != nil && !interrupted {
		kr.Error = err.Error()
		return kr, false
	}

	merge, err := r.merger.Merge(keyword, result.Jobs)
	kr.Merge = merge
	if err != nil {
		logger.Error("save failed", "keyword", keyword, "err", err)
		kr.Error = err.Error()
	}
	return kr, interrupted
}

// Validate reports the error Run would return for req without running it.
func (r *Runner) Validate(req Request) error {
	if len(cleanKeywords(req.Keywords)) == 0 {
		return ErrNoKeywords
	}
	_, err := r.selectScrapers(req.Sources)
	return err
}

// acquireBrowser opens a session only when a selected source needs one.
// A failed acquisition degrades the run to sources that work without it.
// The returned release func is safe to call more than once.
func (r *Runner) acquireBrowser(ctx context.Context, scrapers []scraper.Scraper, disabled bool, logger *slog.Logger) (playwright.Page, func()) {
	noop := func() {}
	if disabled || r.opts.Browser == nil || !needsBrowser(scrapers) {
		return nil, noop
	}

	session, err := r.opts.Browser.Acquire(ctx)
	if err != nil {
		logger.Warn("browser unavailable, continuing with board sources", "err", err)
		return nil, noop
	}
	return session.Page(), sync.OnceFunc(func() {
		if err := session.Close(); err != nil {
			logger.Warn("closing browser session", "err", err)
		}
	})
}

// selectScrapers applies per-request overrides on top of the configured
// enabled flags. Source names match case-insensitively.
func (r *Runner) selectScrapers(overrides map[string]bool) ([]scraper.Scraper, error) {
	enabled := make(map[string]bool, len(r.opts.Scrapers))
	for _, s := range r.opts.Scrapers {
		on, ok := lookup(r.opts.Enabled, s.Name())
		enabled[strings.ToLower(s.Name())] = !ok || on
	}

	var unknown []string
	for name, on := range overrides {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := enabled[key]; !ok {
			unknown = append(unknown, name)
			continue
		}
		enabled[key] = on
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, strings.Join(unknown, ", "))
	}

	selected := make([]scraper.Scraper, 0, len(r.opts.Scrapers))
	for _, s := range r.opts.Scrapers {
		if enabled[strings.ToLower(s.Name())] {
			selected = append(selected, s)
		}
	}
	return selected, nil
}

// SourceNames lists the configured sources in order.
func (r *Runner) SourceNames() []string {
	return scraperNames(r.opts.Scrapers)
}

func lookup(m map[string]bool, name string) (bool, bool) {
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return false, false
}

func needsBrowser(scrapers []scraper.Scraper) bool {
	for _, s := range scrapers {
		if s.NeedsBrowser() {
			return true
		}
	}
	return false
}

func scraperNames(scrapers []scraper.Scraper) []string {
	names := make([]string, len(scrapers))
	for i, s := range scrapers {
		names[i] = s.Name()
	}
	return names
}

// cleanKeywords trims, drops blanks and removes repeats, keeping order.
func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
