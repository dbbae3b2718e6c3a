package scraper

import (
	"errors"
	"fmt"
)

// Locator is one strategy for finding a control on the page.
type Locator struct {
	Name     string
	Selector string
}

// FirstUsable evaluates locators in order and returns the first element that is
// both displayed and enabled. Later locators are never queried once one succeeds.
// ErrNotFound is returned when no locator resolves.
func FirstUsable(page Page, locators []Locator) (Element, Locator, error) {
	var lastErr error
	for _, loc := range locators {
		el, err := page.Find(loc.Selector)
		if err != nil {
			lastErr = err
			continue
		}
		if el.Visible() && el.Enabled() {
			return el, loc, nil
		}
	}
	if lastErr != nil && !errors.Is(lastErr, ErrNotFound) {
		return nil, Locator{}, fmt.Errorf("%w (last lookup error: %v)", ErrNotFound, lastErr)
	}
	return nil, Locator{}, ErrNotFound
}
