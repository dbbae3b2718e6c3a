package actuarylist

import (
	"context"
	"errors"
	"fmt"

	"go-actuarylist-scraper/internal/dedup"
	"go-actuarylist-scraper/internal/scraper"
	"go-actuarylist-scraper/internal/telemetry"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("actuarylist/scraper")

type navState int

const (
	stateLoading navState = iota
	stateReady
	stateAdvancing
	stateDone
)

func (s navState) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateReady:
		return "ready"
	case stateAdvancing:
		return "advancing"
	default:
		return "done"
	}
}

// ErrInitialLoad marks a run whose first page never showed a listing.
var ErrInitialLoad = errors.New("initial page load failed")

// navigator walks the paginated board:
// Loading -> Ready -> (Advancing -> Ready)* -> Done.
// Each entry into Ready scrapes exactly one page.
type navigator struct {
	s    *ActuaryListScraper
	page scraper.Page
	acc  *dedup.Accumulator

	loaded   int
	next     scraper.Element
	failures []scraper.Failure
	pages    []scraper.PageReport
	err      error
}

func (n *navigator) run(ctx context.Context) error {
	state := stateLoading
	for state != stateDone {
		var next navState
		switch state {
		case stateLoading:
			next = n.load(ctx)
		case stateReady:
			next = n.ready(ctx)
		case stateAdvancing:
			next = n.advance(ctx)
		}
		n.s.logger.Debug("pager transition", zap.Stringer("from", state), zap.Stringer("to", next))
		state = next
	}
	return n.err
}

// stop ends the walk; a cancelled context fails the run.
func (n *navigator) stop(err error) navState {
	if err != nil && n.err == nil {
		n.err = err
	}
	return stateDone
}

func (n *navigator) load(ctx context.Context) navState {
	t := n.s.timing
	n.s.logger.Info("loading board", zap.String("url", n.s.baseURL))

	if err := n.page.Navigate(ctx, n.s.baseURL); err != nil {
		n.capture("load-failed")
		return n.stop(fmt.Errorf("%w: navigate: %w", ErrInitialLoad, err))
	}
	if err := n.page.WaitFor(ctx, n.s.sel.Listing, t.LoadTimeout); err != nil {
		n.capture("load-failed")
		return n.stop(fmt.Errorf("%w: no listings within %s: %w", ErrInitialLoad, t.LoadTimeout, err))
	}
	if err := scraper.Sleep(ctx, t.SettleDelay); err != nil {
		return n.stop(err)
	}
	return stateReady
}

func (n *navigator) ready(ctx context.Context) navState {
	n.loaded++
	n.scrapeCurrent(ctx)
	if err := ctx.Err(); err != nil {
		return n.stop(err)
	}

	if n.loaded >= n.s.targetPages {
		n.s.logger.Info("target page count reached", zap.Int("pages", n.loaded))
		return stateDone
	}

	if err := n.page.ScrollToBottom(); err != nil {
		n.s.logger.Warn("scroll to bottom failed", zap.Error(err))
	}
	if err := scraper.Sleep(ctx, n.s.timing.ScrollDelay); err != nil {
		return n.stop(err)
	}

	el, loc, err := scraper.FirstUsable(n.page, n.s.nextLocators)
	if err != nil {
		n.s.logger.Info("no next page control, pagination finished", zap.Int("pages", n.loaded), zap.Error(err))
		return stateDone
	}
	n.s.logger.Debug("next page control found", zap.String("locator", loc.Name))
	n.next = el
	return stateAdvancing
}

func (n *navigator) advance(ctx context.Context) navState {
	t := n.s.timing
	el := n.next
	n.next = nil

	if err := n.page.ScrollTo(el); err != nil {
		n.s.logger.Warn("scroll to next control failed", zap.Error(err))
	}
	if err := scraper.Sleep(ctx, t.PreClickDelay); err != nil {
		return n.stop(err)
	}
	if err := n.page.Click(el); err != nil {
		n.s.logger.Warn("next page click failed, ending pagination", zap.Int("pages", n.loaded), zap.Error(err))
		return stateDone
	}

	delay := t.RenderDelay
	if err := n.page.WaitFor(ctx, n.s.sel.Listing, t.ContentTimeout); err != nil {
		if ctx.Err() != nil {
			return n.stop(ctx.Err())
		}
		n.s.logger.Warn("listings did not appear after click", zap.Int("page", n.loaded+1), zap.Error(err))
		delay = t.FallbackDelay
	}
	if err := scraper.Sleep(ctx, delay); err != nil {
		return n.stop(err)
	}
	return stateReady
}

func (n *navigator) scrapeCurrent(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "ScrapePage")
	defer span.End()
	span.SetAttributes(telemetry.Int("page.number", n.loaded))

	report, failures := n.s.scrapePage(ctx, n.page, n.loaded, n.acc)
	n.pages = append(n.pages, report)
	n.failures = append(n.failures, failures...)

	span.SetAttributes(
		telemetry.Int("page.found", report.Found),
		telemetry.Int("page.added", report.Added),
		telemetry.Int("page.failed", report.Failed),
	)
	if report.Found == 0 {
		span.SetStatus(codes.Error, "no listings")
	}
}

func (n *navigator) capture(name string) {
	c, ok := n.page.(scraper.Capturer)
	if !ok {
		return
	}
	path, err := c.Capture(name)
	if err != nil {
		n.s.logger.Warn("debug screenshot failed", zap.Error(err))
		return
	}
	n.s.logger.Info("debug screenshot saved", zap.String("path", path))
}
