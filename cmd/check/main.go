// Command check validates the config and optionally probes every source
// for one keyword without saving anything.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/playwright-community/playwright-go"

	"remote-job-scraper/internal/aggregator"
	"remote-job-scraper/internal/browser"
	"remote-job-scraper/internal/config"
	"remote-job-scraper/internal/logging"
	"remote-job-scraper/internal/normalize"
	"remote-job-scraper/internal/scraper/sources"
)

type options struct {
	Config  string `short:"c" long:"config" env:"JOBS_CONFIG" default:"configs/config.yaml" description:"Path to the YAML config file"`
	Browser bool   `long:"browser" description:"Start the browser to check that Playwright works"`
	Probe   string `long:"probe" value-name:"KEYWORD" description:"Scrape every source for KEYWORD and print what was found"`
	Debug   bool   `long:"debug" description:"Print debug logs"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}
	if err := check(opts); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func check(opts options) error {
	fmt.Println("🔧 Checking config...")
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Config loaded from %s\n", opts.Config)
	fmt.Printf("   Keywords: %v\n", cfg.Keywords)
	fmt.Printf("   Output: %s, logs: %s\n", cfg.OutputDir, cfg.LogDir)
	fmt.Printf("   Telegram: %v\n", cfg.NotificationsEnabled())
	for _, src := range cfg.Sources {
		fmt.Printf("   Source %-16s enabled=%-5v browser=%-5v %s%s\n", src.Name, src.Enabled, src.RequiresBrowser, src.BaseURL, src.SearchPath)
	}

	if cfg.Browser.CookiesPath != "" {
		cookies, err := browser.LoadCookies(cfg.Browser.CookiesPath)
		if err != nil {
			fmt.Printf("⚠️ Could not load cookies: %v\n", err)
		} else {
			fmt.Printf("🍪 Loaded %d cookies\n", len(cookies))
		}
	}

	logger := logging.Discard()
	if opts.Debug {
		debugLogger, logFile, err := logging.Setup(cfg.LogDir, true)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger = debugLogger
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var page playwright.Page
	if opts.Browser || opts.Probe != "" && cfg.Browser.Enabled {
		fmt.Println("🌐 Starting browser...")
		session, err := browser.NewPlaywright(browser.Options{
			Headless:    cfg.Browser.Headless,
			UserAgent:   cfg.UserAgent,
			CookiesPath: cfg.Browser.CookiesPath,
			Timeout:     cfg.Browser.WaitTimeout,
		}, logger).Acquire(ctx)
		if err != nil {
			fmt.Printf("⚠️ Browser unavailable: %v\n", err)
		} else {
			defer session.Close()
			page = session.Page()
			fmt.Println("✅ Browser started")
		}
	}

	if opts.Probe == "" {
		return nil
	}

	fmt.Printf("🔍 Probing sources for %q (nothing is saved)...\n", opts.Probe)
	scrapers := sources.Build(cfg, nil, logger)
	result, err := aggregator.New(normalize.New(), cfg.DelayBetweenSources, logger).Collect(ctx, opts.Probe, scrapers, page)
	for _, s := range result.Sources {
		switch s.Status {
		case aggregator.StatusOK:
			fmt.Printf("✅ %-16s found %d, kept %d (rejected %d, duplicates %d) in %s\n", s.Source, s.Found, s.Admitted, s.Rejected, s.Duplicates, s.Duration.Round(time.Millisecond))
		default:
			fmt.Printf("❌ %-16s %s: %s\n", s.Source, s.Status, s.Reason)
		}
	}
	for i, job := range result.Jobs {
		if i == 10 {
			fmt.Printf("   ... and %d more\n", len(result.Jobs)-i)
			break
		}
		fmt.Printf("   • %s @ %s [%s] %s\n", job.Title, job.Company, job.Source, job.URL)
	}
	return err
}
