package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"

	"remote-job-scraper/internal/api"
	"remote-job-scraper/internal/app"
	"remote-job-scraper/internal/config"
	"remote-job-scraper/internal/logging"
	"remote-job-scraper/internal/runner"
	"remote-job-scraper/internal/scheduler"
)

type options struct {
	Config string `short:"c" long:"config" env:"JOBS_CONFIG" default:"configs/config.yaml" description:"Path to the YAML config file"`
	Port   string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	Debug  bool   `long:"debug" env:"DEBUG" description:"Print debug logs to the console"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}

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

	a, err := app.Build(cfg, nil, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	runs := api.NewRunManager(ctx, a.Runner, a.Notifier, logger)
	handler := api.NewHandler(a.Store, runs, a.Runner.SourceNames(), cfg.Keywords, logger)

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = ":" + opts.Port
	httpServer := serverCfg.HTTPServer(api.NewServer(handler, logger))

	//background runs share the single-run guard with the API
	if cfg.Schedule != "" {
		s, err := scheduler.New(cfg.Schedule, logger)
		if err != nil {
			logger.Error("invalid schedule", "err", err)
			return 2
		}
		s.Start(ctx, func(context.Context) {
			_, err := runs.Start(runner.Request{Keywords: cfg.Keywords, NoBrowser: !cfg.Browser.Enabled})
			if err != nil {
				logger.Warn("scheduled run not started", "err", err)
			}
		}, false)
		defer func() { <-s.Stop().Done() }()
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("http server failed", "err", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "err", err)
	}

	//the active run sees the cancelled ctx and saves what it has
	stop()
	runs.Wait()
	logger.Info("server stopped")
	return exitCode
}
