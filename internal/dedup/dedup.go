package dedup

import "go-actuarylist-scraper/internal/models"

// Key is the natural key of a listing. The board exposes no stable job id.
type Key struct {
	Title   string
	Company string
}

func KeyOf(l models.Listing) Key {
	return Key{Title: l.Title, Company: l.Company}
}

// Accumulator collects the listings of one scrape run, keeping the first
// listing seen for each Key in insertion order.
// It is owned by the scrape goroutine and is not safe for concurrent use.
type Accumulator struct {
	seen       map[Key]struct{}
	listings   []models.Listing
	duplicates int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		seen: make(map[Key]struct{}),
	}
}

// Add appends l unless a listing with the same Key was already added.
// It reports whether l was kept.
func (a *Accumulator) Add(l models.Listing) bool {
	k := KeyOf(l)
	if _, exists := a.seen[k]; exists {
		a.duplicates++
		return false
	}
	a.seen[k] = struct{}{}
	a.listings = append(a.listings, l)
	return true
}

func (a *Accumulator) Len() int {
	return len(a.listings)
}

// Duplicates counts the Add calls rejected so far.
func (a *Accumulator) Duplicates() int {
	return a.duplicates
}

// Listings returns a copy of the kept listings.
func (a *Accumulator) Listings() []models.Listing {
	out := make([]models.Listing, len(a.listings))
	copy(out, a.listings)
	return out
}
