package actuarylist

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"go-actuarylist-scraper/internal/filter"
	"go-actuarylist-scraper/internal/models"
	"go-actuarylist-scraper/internal/scraper"

	"golang.org/x/text/runes"
)

const (
	DefaultCompany         = "Company Name Not Listed"
	DefaultTitle           = "Actuary Position"
	DefaultLocation        = "Remote / Not Specified"
	DefaultLocationNoLines = "Not Specified"
	DefaultPostingDate     = "Recently posted"

	MaxTags          = 8
	maxLocationLines = 3
)

// DefaultTags are applied when a card carries no tag links.
var DefaultTags = []string{"Actuary", "Insurance"}

// Selectors is the card markup of actuarylist.com.
type Selectors struct {
	Listing      string
	Company      string
	Title        string
	Locations    string
	PostedOn     string
	TagContainer string
	Tag          string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Listing:      "article",
		Company:      "p.Job_job-card__company__7T9qY",
		Title:        "p.Job_job-card__position__ic1rc",
		Locations:    "div.Job_job-card__locations__x1exr",
		PostedOn:     "p.Job_job-card__posted-on__NCZaJ",
		TagContainer: "div.Job_job-card__tags__zfriA",
		Tag:          "a",
	}
}

// pictographs covers Misc Symbols and Pictographs through Supplemental
// Symbols and Pictographs, emoticons and transport symbols included.
var pictographs = runes.In(&unicode.RangeTable{
	R32: []unicode.Range32{{Lo: 0x1F300, Hi: 0x1F9FF, Stride: 1}},
})

// Extractor turns one listing card into a Listing. Every field has its own
// fallback, so a broken field never loses the card.
type Extractor struct {
	sel Selectors
}

func NewExtractor(sel Selectors) *Extractor {
	return &Extractor{sel: sel}
}

func (x *Extractor) Extract(ctx context.Context, el scraper.Element) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if el == nil {
		return nil, errors.New("nil listing element")
	}

	l := &models.Listing{
		Company:     x.textOr(el, x.sel.Company, DefaultCompany),
		Title:       x.textOr(el, x.sel.Title, DefaultTitle),
		Location:    x.location(el),
		PostingDate: x.textOr(el, x.sel.PostedOn, DefaultPostingDate),
		Tags:        x.tags(el),
	}
	l.JobType = filter.InferJobType(l.Title, l.Tags)
	return l, nil
}

func (x *Extractor) textOr(el scraper.Element, selector, fallback string) string {
	child, err := el.Find(selector)
	if err != nil {
		return fallback
	}
	text, err := child.Text()
	if err != nil {
		return fallback
	}
	if text = strings.TrimSpace(text); text == "" {
		return fallback
	}
	return text
}

func (x *Extractor) location(el scraper.Element) string {
	container, err := el.Find(x.sel.Locations)
	if err != nil {
		return DefaultLocation
	}
	text, err := container.Text()
	if err != nil {
		return DefaultLocation
	}
	return ParseLocation(text)
}

// ParseLocation keeps up to three non-empty lines that do not start with a
// pictograph (salary and perk badges) and joins them with ", ".
func ParseLocation(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(line); pictographs.Contains(r) {
			continue
		}
		parts = append(parts, line)
		if len(parts) == maxLocationLines {
			break
		}
	}
	if len(parts) == 0 {
		return DefaultLocationNoLines
	}
	return strings.Join(parts, ", ")
}

func (x *Extractor) tags(el scraper.Element) []string {
	container, err := el.Find(x.sel.TagContainer)
	if err != nil {
		return defaultTags()
	}
	links, err := container.FindAll(x.sel.Tag)
	if err != nil {
		return defaultTags()
	}

	var tags []string
	for _, link := range links {
		text, err := link.Text()
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			tags = append(tags, text)
		}
		if len(tags) == MaxTags {
			break
		}
	}
	if len(tags) == 0 {
		return defaultTags()
	}
	return tags
}

func defaultTags() []string {
	return append([]string(nil), DefaultTags...)
}
