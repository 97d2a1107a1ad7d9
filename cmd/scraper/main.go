package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"remote-job-scraper/internal/app"
	"remote-job-scraper/internal/config"
	"remote-job-scraper/internal/logging"
	"remote-job-scraper/internal/runner"
	"remote-job-scraper/internal/scheduler"
)

type options struct {
	Config    string   `short:"c" long:"config" env:"JOBS_CONFIG" default:"configs/config.yaml" description:"Path to the YAML config file"`
	Keywords  []string `short:"k" long:"keyword" description:"Keyword to search for (repeatable); defaults to the configured list"`
	Disable   []string `long:"disable" description:"Source to skip for this run (repeatable)"`
	NoBrowser bool     `long:"no-browser" description:"Do not start a browser; browser sources are skipped"`
	Schedule  string   `long:"schedule" description:"Cron spec (e.g. \"@every 6h\"); run repeatedly instead of once. Overrides the config"`
	Once      bool     `long:"once" description:"Run once even when the config sets a schedule"`
	Debug     bool     `long:"debug" env:"DEBUG" description:"Print debug logs to the console"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}

	//load config
	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	logger, logFile, err := logging.Setup(cfg.LogDir, opts.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}
	defer logFile.Close()
	defer logging.RecoverPanic(logger)

	logger.Info("config loaded", "path", opts.Config, "keywords", cfg.Keywords, "sources", len(cfg.Sources))

	a, err := app.Build(cfg, nil, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		return 1
	}

	req := a.Request(opts.Keywords, opts.Disable, opts.NoBrowser)
	if err := a.Runner.Validate(req); err != nil {
		logger.Error("invalid run request", "err", err)
		return 2
	}

	//SIGINT/SIGTERM stop the run at the next checkpoint
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedule := opts.Schedule
	if schedule == "" {
		schedule = cfg.Schedule
	}
	if schedule == "" || opts.Once {
		return runOnce(ctx, a, req, logger)
	}
	return runScheduled(ctx, schedule, a, req, logger)
}

func runOnce(ctx context.Context, a *app.App, req runner.Request, logger *slog.Logger) int {
	report, err := a.Runner.Run(ctx, req)
	if err != nil {
		logger.Error("run failed", "err", err)
		alert(ctx, a, err, logger)
		return 1
	}
	printSummary(report)
	if report.HasErrors() {
		return 1
	}
	return 0
}

func runScheduled(ctx context.Context, spec string, a *app.App, req runner.Request, logger *slog.Logger) int {
	s, err := scheduler.New(spec, logger)
	if err != nil {
		logger.Error("invalid schedule", "err", err)
		return 2
	}

	s.Start(ctx, func(ctx context.Context) {
		report, err := a.Runner.Run(ctx, req)
		if err != nil {
			logger.Error("scheduled run failed", "err", err)
			alert(ctx, a, err, logger)
			return
		}
		printSummary(report)
	}, true)

	<-ctx.Done()
	logger.Info("shutting down, waiting for the current run")
	<-s.Stop().Done()
	return 0
}

func alert(ctx context.Context, a *app.App, err error, logger *slog.Logger) {
	if err := a.Notifier.NotifyError(context.WithoutCancel(ctx), err); err != nil {
		logger.Warn("error alert failed", "err", err)
	}
}

func printSummary(report runner.Report) {
	fmt.Printf("\n📊 Run %s\n", report.ID)
	if report.Interrupted {
		fmt.Println("⏹ stopped before all keywords were processed")
	}
	if !report.BrowserAvailable {
		fmt.Println("⚠️ browser unavailable, browser sources were skipped")
	}
	for _, kr := range report.Keywords {
		fmt.Printf("🔎 %-20s found %3d, new %3d, stored %4d\n", kr.Keyword, kr.Found, kr.Merge.Inserted, kr.Merge.Total)
		for _, s := range kr.Failed() {
			fmt.Printf("   ❌ %s: %s\n", s.Source, s.Reason)
		}
		for _, s := range kr.Skipped() {
			fmt.Printf("   ⏭ %s: %s\n", s.Source, s.Reason)
		}
		if kr.Error != "" {
			fmt.Printf("   💥 save failed: %s\n", kr.Error)
		}
	}
}
