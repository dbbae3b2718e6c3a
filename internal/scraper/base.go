// Browser capability consumed by site scrapers
// Any automation backend satisfying Page/Element can drive a scrape

package scraper

import (
	"context"
	"errors"
	"time"

	"go-actuarylist-scraper/internal/models"
)

var (
	// ErrNotFound is returned by Find when no element matches.
	ErrNotFound = errors.New("element not found")
	// ErrWaitTimeout is returned by WaitFor when the selector never appeared.
	ErrWaitTimeout = errors.New("wait timed out")
)

// Element is one rendered DOM node.
type Element interface {
	// Text returns the rendered text, lines separated by '\n'.
	Text() (string, error)
	// Find returns the first descendant matching selector or ErrNotFound.
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	Visible() bool
	Enabled() bool
}

// Page is the single browser tab a scrape drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until at least one element matches selector or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	ScrollToBottom() error
	ScrollTo(el Element) error
	Click(el Element) error
}

// Capturer is implemented by pages that can save a debug screenshot.
type Capturer interface {
	Capture(name string) (path string, err error)
}

// Failure records a listing that could not be extracted.
type Failure struct {
	Page     int    `json:"page"`
	Position int    `json:"position"` // 1-based, DOM order
	Error    string `json:"error"`
}

// PageReport summarises one listing page.
type PageReport struct {
	Page       int `json:"page"`
	Found      int `json:"found"`
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Result is the outcome of one scrape run.
type Result struct {
	Listings    []models.Listing
	PagesLoaded int
	Pages       []PageReport // one per loaded page, in load order
	Duplicates  int          // dropped by the in-memory natural-key check
	Failures    []Failure
}

// Scraper defines the interface that all job board scrapers must implement
type Scraper interface {
	//Scrape walks the board and returns the deduplicated listings
	Scrape(ctx context.Context, page Page) (*Result, error)

	//Name is the board name
	Name() string
}

// Timing holds the bounded waits and fixed settle delays of a scrape.
type Timing struct {
	LoadTimeout    time.Duration `yaml:"load_timeout"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	ScrollDelay    time.Duration `yaml:"scroll_delay"`
	PreClickDelay  time.Duration `yaml:"pre_click_delay"`
	ContentTimeout time.Duration `yaml:"content_timeout"`
	RenderDelay    time.Duration `yaml:"render_delay"`
	FallbackDelay  time.Duration `yaml:"fallback_delay"`
}

func DefaultTiming() Timing {
	return Timing{
		LoadTimeout:    20 * time.Second,
		SettleDelay:    3 * time.Second,
		ScrollDelay:    2 * time.Second,
		PreClickDelay:  1 * time.Second,
		ContentTimeout: 10 * time.Second,
		RenderDelay:    2 * time.Second,
		FallbackDelay:  4 * time.Second,
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
