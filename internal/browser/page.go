package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-actuarylist-scraper/internal/scraper"

	"github.com/playwright-community/playwright-go"
)

const textTimeout = 5 * time.Second

// Page adapts a Playwright page to scraper.Page.
type Page struct {
	page        playwright.Page
	loadTimeout time.Duration
	shots       *ScreenshotDebugger
}

func NewPage(page playwright.Page, loadTimeout time.Duration, shots *ScreenshotDebugger) *Page {
	return &Page{page: page, loadTimeout: loadTimeout, shots: shots}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(p.loadTimeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s", scraper.ErrWaitTimeout, selector)
	}
	return err
}

func (p *Page) Find(selector string) (scraper.Element, error) {
	return firstOf(p.page.Locator(selector))
}

func (p *Page) FindAll(selector string) ([]scraper.Element, error) {
	return allOf(p.page.Locator(selector))
}

func (p *Page) ScrollToBottom() error {
	_, err := p.page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}

func (p *Page) ScrollTo(el scraper.Element) error {
	le, err := asLocator(el)
	if err != nil {
		return err
	}
	return le.loc.ScrollIntoViewIfNeeded()
}

// Click dispatches a DOM click, which still lands when an overlay covers
// the control.
func (p *Page) Click(el scraper.Element) error {
	le, err := asLocator(el)
	if err != nil {
		return err
	}
	_, err = le.loc.Evaluate("el => el.click()", nil)
	return err
}

// Capture saves a full-page screenshot for debugging.
func (p *Page) Capture(name string) (string, error) {
	if p.shots == nil {
		return "", errors.New("screenshots disabled")
	}
	return p.shots.Capture(p.page, name)
}

type locatorElement struct {
	loc playwright.Locator
}

func asLocator(el scraper.Element) (*locatorElement, error) {
	le, ok := el.(*locatorElement)
	if !ok {
		return nil, fmt.Errorf("element %T does not belong to a playwright page", el)
	}
	return le, nil
}

func firstOf(loc playwright.Locator) (scraper.Element, error) {
	n, err := loc.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, scraper.ErrNotFound
	}
	return &locatorElement{loc: loc.First()}, nil
}

func allOf(loc playwright.Locator) ([]scraper.Element, error) {
	locs, err := loc.All()
	if err != nil {
		return nil, err
	}
	out := make([]scraper.Element, len(locs))
	for i, l := range locs {
		out[i] = &locatorElement{loc: l}
	}
	return out, nil
}

func (e *locatorElement) Text() (string, error) {
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(float64(textTimeout.Milliseconds())),
	})
}

func (e *locatorElement) Find(selector string) (scraper.Element, error) {
	return firstOf(e.loc.Locator(selector))
}

func (e *locatorElement) FindAll(selector string) ([]scraper.Element, error) {
	return allOf(e.loc.Locator(selector))
}

func (e *locatorElement) Visible() bool {
	ok, err := e.loc.IsVisible()
	return err == nil && ok
}

func (e *locatorElement) Enabled() bool {
	ok, err := e.loc.IsEnabled()
	return err == nil && ok
}
