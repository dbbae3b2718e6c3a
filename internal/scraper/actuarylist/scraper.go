// Package actuarylist scrapes the paginated actuarylist.com job board.
package actuarylist

import (
	"context"

	"go-actuarylist-scraper/internal/dedup"
	"go-actuarylist-scraper/internal/scraper"
	"go-actuarylist-scraper/internal/telemetry"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://www.actuarylist.com/"
	DefaultTargetPages = 10
)

// DefaultNextLocators resolve the "Next" pager button, most specific last.
var DefaultNextLocators = []scraper.Locator{
	{Name: "xpath-text", Selector: "xpath=//button[contains(text(), 'Next')]"},
	{Name: "has-text", Selector: `button:has-text("Next")`},
	{Name: "xpath-class", Selector: "xpath=//button[contains(@class, 'relative') and contains(text(), 'Next')]"},
}

type Options struct {
	BaseURL      string
	TargetPages  int
	Timing       scraper.Timing
	Selectors    Selectors
	NextLocators []scraper.Locator
	Logger       *zap.Logger
}

type ActuaryListScraper struct {
	baseURL      string
	targetPages  int
	timing       scraper.Timing
	sel          Selectors
	nextLocators []scraper.Locator
	extractor    *Extractor
	logger       *zap.Logger
}

// New fills zero-valued options with the board defaults. Timing is taken
// as given, so a zero Timing means no waits.
func New(opts Options) *ActuaryListScraper {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TargetPages <= 0 {
		opts.TargetPages = DefaultTargetPages
	}
	if opts.Selectors == (Selectors{}) {
		opts.Selectors = DefaultSelectors()
	}
	if len(opts.NextLocators) == 0 {
		opts.NextLocators = DefaultNextLocators
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ActuaryListScraper{
		baseURL:      opts.BaseURL,
		targetPages:  opts.TargetPages,
		timing:       opts.Timing,
		sel:          opts.Selectors,
		nextLocators: opts.NextLocators,
		extractor:    NewExtractor(opts.Selectors),
		logger:       opts.Logger.With(zap.String("scraper", "actuarylist")),
	}
}

func (s *ActuaryListScraper) Name() string {
	return "ActuaryList"
}

// Scrape walks up to the target page count and returns the deduplicated
// listings. The result is non-nil even when err is, carrying whatever was
// collected before the failure.
func (s *ActuaryListScraper) Scrape(ctx context.Context, page scraper.Page) (*scraper.Result, error) {
	ctx, span := tracer.Start(ctx, "ActuaryListScraper.Scrape")
	defer span.End()

	nav := &navigator{s: s, page: page, acc: dedup.NewAccumulator()}
	err := nav.run(ctx)
	if err != nil {
		span.RecordError(err)
	}

	res := &scraper.Result{
		Listings:    nav.acc.Listings(),
		PagesLoaded: nav.loaded,
		Pages:       nav.pages,
		Duplicates:  nav.acc.Duplicates(),
		Failures:    nav.failures,
	}
	span.SetAttributes(
		telemetry.Int("pages.loaded", res.PagesLoaded),
		telemetry.Int("listings", len(res.Listings)),
	)
	s.logger.Info("scrape finished",
		zap.Int("pages", res.PagesLoaded),
		zap.Int("listings", len(res.Listings)),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("failures", len(res.Failures)),
	)
	return res, err
}
