package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

var DefaultScreenshotDir = filepath.Join("logs", "screenshots")

// ScreenshotDebugger handles debug screenshots
type ScreenshotDebugger struct {
	outputDir string
	logger    *zap.Logger
	now       func() time.Time
}

func NewScreenshotDebugger(dir string, logger *zap.Logger) *ScreenshotDebugger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScreenshotDebugger{outputDir: dir, logger: logger, now: time.Now}
}

// Path is where a screenshot named name would be written now.
func (s *ScreenshotDebugger) Path(name string) string {
	timestamp := s.now().Format("2006-01-02_15-04-05")
	return filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))
}

func (s *ScreenshotDebugger) Capture(page playwright.Page, name string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	path := s.Path(name)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.logger.Warn("failed to capture screenshot", zap.String("name", name), zap.Error(err))
		return "", err
	}
	s.logger.Info("screenshot saved", zap.String("path", path))
	return path, nil
}
