package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenshotDebugger saves full-page screenshots when a scripted source
// fails, so the page state can be inspected afterwards.
type ScreenshotDebugger struct {
	outputDir string
	logger    *slog.Logger
}

func NewScreenshotDebugger(dir string, logger *slog.Logger) *ScreenshotDebugger {
	return &ScreenshotDebugger{
		outputDir: dir,
		logger:    logger,
	}
}

func (s *ScreenshotDebugger) Capture(page playwright.Page, name, message string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))

	s.logger.Info(message, "screenshot", path)
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.logger.Warn("failed to capture screenshot", "err", err)
		return "", err
	}
	return path, nil
}
