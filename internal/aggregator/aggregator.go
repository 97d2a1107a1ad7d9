// Package aggregator drives every enabled source for one keyword, normalizing
// and de-duplicating what they return.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"remote-job-scraper/internal/dedup"
	"remote-job-scraper/internal/models"
	"remote-job-scraper/internal/normalize"
	"remote-job-scraper/internal/scraper"
)

// ErrInterrupted is returned by Collect when the context is done before all
// sources have been attempted. The partial Result is still valid.
var ErrInterrupted = errors.New("collection interrupted")

// SkipReasonNoBrowser is reported for browser sources when no session exists.
const SkipReasonNoBrowser = "browser session unavailable"

type Aggregator struct {
	normalizer *normalize.Normalizer
	pause      time.Duration
	logger     *slog.Logger
}

// New returns an Aggregator that waits pause between two source invocations.
func New(normalizer *normalize.Normalizer, pause time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		normalizer: normalizer,
		pause:      pause,
		logger:     logger.With("component", "aggregator"),
	}
}

// Collect runs scrapers one after another, in order, for keyword. A failing
// scraper is recorded in the result and never stops the others. Browser
// scrapers are skipped when page is nil.
func (a *Aggregator) Collect(ctx context.Context, keyword string, scrapers []scraper.Scraper, page playwright.Page) (Result, error) {
	result := Result{
		Keyword: keyword,
		Jobs:    []models.JobPosting{},
		Sources: make([]SourceReport, 0, len(scrapers)),
	}
	seen := dedup.NewRunDeduplicator()
	invoked := 0

	for _, s := range scrapers {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}

		if s.NeedsBrowser() && page == nil {
			a.logger.Info("skipping source", "source", s.Name(), "keyword", keyword, "reason", SkipReasonNoBrowser)
			result.Sources = append(result.Sources, SourceReport{
				Source: s.Name(),
				Status: StatusSkipped,
				Reason: SkipReasonNoBrowser,
			})
			continue
		}

		if invoked > 0 && a.pause > 0 {
			if err := sleep(ctx, a.pause); err != nil {
				return result, fmt.Errorf("%w: %w", ErrInterrupted, err)
			}
		}
		invoked++

		report := a.collectFrom(ctx, s, keyword, page, seen, &result.Jobs)
		result.Sources = append(result.Sources, report)
	}

	a.logger.Info("keyword collected", "keyword", keyword, "jobs", len(result.Jobs), "failed_sources", len(result.Failed()))
	return result, nil
}

func (a *Aggregator) collectFrom(ctx context.Context, s scraper.Scraper, keyword string, page playwright.Page, seen *dedup.RunDeduplicator, jobs *[]models.JobPosting) SourceReport {
	report := SourceReport{Source: s.Name()}
	started := time.Now()

	listings, err := scrape(ctx, s, keyword, page)
	report.Duration = time.Since(started)
	if err != nil {
		a.logger.Warn("source failed", "source", s.Name(), "keyword", keyword, "err", err)
		report.Status = StatusFailed
		report.Reason = err.Error()
		return report
	}

	report.Status = StatusOK
	report.Found = len(listings)
	for _, raw := range listings {
		job, ok := a.normalizer.Normalize(raw, s.Name(), keyword)
		if !ok {
			report.Rejected++
			continue
		}
		if !seen.Admit(job) {
			report.Duplicates++
			continue
		}
		*jobs = append(*jobs, job)
		report.Admitted++
	}

	a.logger.Info("source finished", "source", s.Name(), "keyword", keyword,
		"found", report.Found, "admitted", report.Admitted,
		"rejected", report.Rejected, "duplicates", report.Duplicates)
	return report
}

// scrape turns a panicking adapter into an ordinary failure.
func scrape(ctx context.Context, s scraper.Scraper, keyword string, page playwright.Page) (listings []models.RawListing, err error) {
	defer func() {
		if r := recover(); r != nil {
			listings = nil
			err = fmt.Errorf("scraper panicked: %v", r)
		}
	}()
	return s.Scrape(ctx, keyword, page)
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
