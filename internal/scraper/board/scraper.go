// Package board scrapes job boards that render their listings server-side.
package board

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"

	"remote-job-scraper/internal/config"
	"remote-job-scraper/internal/models"
	"remote-job-scraper/internal/scraper"
)

type BoardScraper struct {
	src    config.SourceConfig
	client *http.Client
	logger *slog.Logger
}

func NewBoardScraper(src config.SourceConfig, client *http.Client, logger *slog.Logger) *BoardScraper {
	return &BoardScraper{
		src:    src,
		client: client,
		logger: logger.With("source", src.Name),
	}
}

func (s *BoardScraper) Name() string {
	return s.src.Name
}

func (s *BoardScraper) NeedsBrowser() bool {
	return false
}

func (s *BoardScraper) Scrape(ctx context.Context, keyword string, _ playwright.Page) ([]models.RawListing, error) {
	searchURL, err := scraper.BuildSearchURL(s.src.BaseURL, s.src.SearchPath, keyword)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("searching", "url", searchURL)

	doc, err := s.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	cards := doc.Find(s.src.Selectors.Listing)
	s.logger.Debug("found job cards", "count", cards.Length(), "keyword", keyword)

	listings := make([]models.RawListing, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		listings = append(listings, s.parseCard(card))
	})
	return listings, nil
}

func (s *BoardScraper) fetch(ctx context.Context, searchURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range s.src.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s returned %d: %s", s.src.Name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func (s *BoardScraper) parseCard(card *goquery.Selection) models.RawListing {
	sel := s.src.Selectors
	listing := models.RawListing{
		Title:   text(card, sel.Title),
		Company: text(card, sel.Company),
	}
	if sel.Location != "" {
		listing.Location = text(card, sel.Location)
	}
	if sel.Date != "" {
		listing.DatePosted = date(card, sel.Date)
	}

	href, _ := card.Find(sel.Link).First().Attr("href")
	if u, err := scraper.ResolveURL(s.src.BaseURL, href); err == nil {
		listing.URL = u
	} else {
		s.logger.Debug("unresolvable link", "href", href, "err", err)
	}

	if s.src.CompanyDirect {
		direct := true
		listing.IsCompanyDirect = &direct
	}
	return listing
}

func text(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}

// date prefers a machine-readable datetime attribute over the visible text.
func date(card *goquery.Selection, selector string) string {
	el := card.Find(selector).First()
	if dt, ok := el.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		return strings.TrimSpace(dt)
	}
	return strings.TrimSpace(el.Text())
}
