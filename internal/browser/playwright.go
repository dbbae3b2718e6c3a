package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var launchArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-blink-features=AutomationControlled",
}

// Options configures the Chromium instance behind a scrape.
type Options struct {
	Headless        bool
	UserAgent       string
	ViewportWidth   int
	ViewportHeight  int
	PageLoadTimeout time.Duration
	CookiesPath     string
	ScreenshotDir   string
	Logger          *zap.Logger
}

func (o *Options) setDefaults() {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.ViewportWidth == 0 || o.ViewportHeight == 0 {
		o.ViewportWidth, o.ViewportHeight = 1920, 1080
	}
	if o.PageLoadTimeout <= 0 {
		o.PageLoadTimeout = 30 * time.Second
	}
	if o.ScreenshotDir == "" {
		o.ScreenshotDir = DefaultScreenshotDir
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
}

// NewPlaywright starts the driver and launches Chromium.
func NewPlaywright(ctx context.Context, opts Options) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.setDefaults()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     launchArgs,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	return &PlaywrightManager{pw: pw, browser: browser, opts: opts}, nil
}

func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	browserCtx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(pm.opts.UserAgent),
		Viewport: &playwright.Size{
			Width:  pm.opts.ViewportWidth,
			Height: pm.opts.ViewportHeight,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	browserCtx.SetDefaultNavigationTimeout(float64(pm.opts.PageLoadTimeout.Milliseconds()))

	if len(cookies) > 0 {
		if err := browserCtx.AddCookies(cookies); err != nil {
			_ = browserCtx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	return browserCtx, nil
}

func (pm *PlaywrightManager) Close() error {
	var errs []error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Launch acquires driver, browser, context and a single page. The returned
// release func closes all of them and is safe to call once from a defer.
func Launch(ctx context.Context, opts Options) (*Page, func(), error) {
	opts.setDefaults()
	logger := opts.Logger

	pm, err := NewPlaywright(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	var cookies []playwright.OptionalCookie
	if opts.CookiesPath != "" {
		cookies, err = LoadCookies(opts.CookiesPath)
		if err != nil {
			logger.Warn("could not load cookies, continuing without", zap.String("path", opts.CookiesPath), zap.Error(err))
		} else {
			logger.Info("cookies loaded", zap.Int("count", len(cookies)))
		}
	}

	browserCtx, err := pm.NewContext(cookies)
	if err != nil {
		_ = pm.Close()
		return nil, nil, err
	}

	pwPage, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		_ = pm.Close()
		return nil, nil, fmt.Errorf("could not create page: %w", err)
	}

	release := func() {
		if err := browserCtx.Close(); err != nil {
			logger.Warn("closing browser context", zap.Error(err))
		}
		if err := pm.Close(); err != nil {
			logger.Warn("closing playwright", zap.Error(err))
		}
		logger.Info("browser released")
	}

	logger.Info("browser initialized", zap.Bool("headless", opts.Headless))
	return NewPage(pwPage, opts.PageLoadTimeout, NewScreenshotDebugger(opts.ScreenshotDir, logger)), release, nil
}
