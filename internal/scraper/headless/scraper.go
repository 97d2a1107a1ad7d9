// Package headless scrapes job boards that only render listings in a real browser.
package headless

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"remote-job-scraper/internal/browser"
	"remote-job-scraper/internal/config"
	"remote-job-scraper/internal/models"
	"remote-job-scraper/internal/scraper"
)

// ErrNoPage is returned when Scrape is called without a browser session.
var ErrNoPage = errors.New("browser page required")

const fieldTimeoutMs = 1000

type HeadlessScraper struct {
	src         config.SourceConfig
	waitTimeout time.Duration
	screenshots *browser.ScreenshotDebugger
	logger      *slog.Logger
}

func NewHeadlessScraper(src config.SourceConfig, waitTimeout time.Duration, screenshots *browser.ScreenshotDebugger, logger *slog.Logger) *HeadlessScraper {
	return &HeadlessScraper{
		src:         src,
		waitTimeout: waitTimeout,
		screenshots: screenshots,
		logger:      logger.With("source", src.Name),
	}
}

func (s *HeadlessScraper) Name() string {
	return s.src.Name
}

func (s *HeadlessScraper) NeedsBrowser() bool {
	return true
}

func (s *HeadlessScraper) Scrape(ctx context.Context, keyword string, page playwright.Page) ([]models.RawListing, error) {
	if page == nil {
		return nil, ErrNoPage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchURL, err := scraper.BuildSearchURL(s.src.BaseURL, s.src.SearchPath, keyword)
	if err != nil {
		return nil, err
	}

	if len(s.src.Headers) > 0 {
		if err := page.SetExtraHTTPHeaders(s.src.Headers); err != nil {
			s.logger.Debug("could not set extra headers", "err", err)
		}
	}

	//navigate
	s.logger.Debug("navigating", "url", searchURL)
	if _, err := page.Goto(searchURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.waitTimeout.Milliseconds()) * 3),
	}); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", searchURL, err)
	}

	//wait for listings to render
	cards := page.Locator(s.src.Selectors.Listing)
	if err := cards.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(s.waitTimeout.Milliseconds())),
	}); err != nil {
		s.capture(page, "listing-timeout")
		return nil, fmt.Errorf("wait for %q: %w", s.src.Selectors.Listing, err)
	}

	if err := browser.MouseJiggle(page); err != nil {
		s.logger.Debug("mouse move failed", "err", err)
	}
	if err := browser.SmoothScroll(page); err != nil {
		s.logger.Debug("scroll failed", "err", err)
	}

	all, err := cards.All()
	if err != nil {
		return nil, fmt.Errorf("list job cards: %w", err)
	}
	s.logger.Debug("found job cards", "count", len(all), "keyword", keyword)

	listings := make([]models.RawListing, 0, len(all))
	for _, card := range all {
		listing, err := s.parseCard(card)
		if err != nil {
			//one broken card must not lose the rest of the page
			s.logger.Debug("skipping card", "err", err)
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (s *HeadlessScraper) parseCard(card playwright.Locator) (models.RawListing, error) {
	sel := s.src.Selectors

	title, err := text(card, sel.Title)
	if err != nil {
		return models.RawListing{}, fmt.Errorf("title: %w", err)
	}
	company, err := text(card, sel.Company)
	if err != nil {
		return models.RawListing{}, fmt.Errorf("company: %w", err)
	}

	listing := models.RawListing{Title: title, Company: company}
	if sel.Location != "" {
		listing.Location, _ = text(card, sel.Location)
	}
	if sel.Date != "" {
		listing.DatePosted, _ = text(card, sel.Date)
	}

	href, err := card.Locator(sel.Link).First().GetAttribute("href", playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(fieldTimeoutMs),
	})
	if err == nil {
		if u, err := scraper.ResolveURL(s.src.BaseURL, href); err == nil {
			listing.URL = u
		}
	}

	if s.src.CompanyDirect {
		direct := true
		listing.IsCompanyDirect = &direct
	}
	return listing, nil
}

func text(card playwright.Locator, selector string) (string, error) {
	loc := card.Locator(selector).First()
	if count, err := loc.Count(); err != nil || count == 0 {
		return "", err
	}
	value, err := loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(fieldTimeoutMs),
	})
	return strings.TrimSpace(value), err
}

func (s *HeadlessScraper) capture(page playwright.Page, name string) {
	if s.screenshots == nil {
		return
	}
	slug := strings.ToLower(strings.NewReplacer(".", "-", " ", "-").Replace(s.src.Name))
	_, _ = s.screenshots.Capture(page, slug+"-"+name, "listing page did not render")
}
