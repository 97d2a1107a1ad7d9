package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is one exclusively owned browser page. It is not safe for
// concurrent use and must be closed by whoever acquired it.
type Session interface {
	Page() playwright.Page
	Close() error
}

// SessionProvider creates browser sessions.
type SessionProvider interface {
	Acquire(ctx context.Context) (Session, error)
}

type Options struct {
	Headless    bool
	UserAgent   string
	CookiesPath string
	//default timeout for page operations
	Timeout time.Duration
}

type PlaywrightManager struct {
	opts   Options
	logger *slog.Logger
}

func NewPlaywright(opts Options, logger *slog.Logger) *PlaywrightManager {
	return &PlaywrightManager{
		opts:   opts,
		logger: logger.With("component", "browser"),
	}
}

// Acquire starts the playwright driver, launches Chromium and opens one page.
// Everything started before a failure is torn down again.
func (pm *PlaywrightManager) Acquire(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright (is the driver installed?): %w", err)
	}
	s := &playwrightSession{pw: pw}

	s.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(pm.opts.Headless),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu"},
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("launch chromium: %w", err), s.Close())
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if pm.opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(pm.opts.UserAgent)
	}
	s.context, err = s.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create browser context: %w", err), s.Close())
	}

	if pm.opts.CookiesPath != "" {
		cookies, err := LoadCookies(pm.opts.CookiesPath)
		if err != nil {
			pm.logger.Warn("could not load cookies, continuing without", "path", pm.opts.CookiesPath, "err", err)
		} else if err := s.context.AddCookies(cookies); err != nil {
			pm.logger.Warn("could not add cookies, continuing without", "err", err)
		} else {
			pm.logger.Info("loaded cookies", "count", len(cookies))
		}
	}

	s.page, err = s.context.NewPage()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create page: %w", err), s.Close())
	}
	if pm.opts.Timeout > 0 {
		s.page.SetDefaultTimeout(float64(pm.opts.Timeout.Milliseconds()))
	}

	pm.logger.Info("browser session ready", "headless", pm.opts.Headless)
	return s, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func (s *playwrightSession) Page() playwright.Page {
	return s.page
}

// Close releases the page, context, browser and driver in reverse order.
func (s *playwrightSession) Close() error {
	var errs []error
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}
