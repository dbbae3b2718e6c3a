package actuarylist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go-actuarylist-scraper/internal/htmldoc"
	"go-actuarylist-scraper/internal/models"
	"go-actuarylist-scraper/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cardSpec struct {
	title, company, location, posted string
	tags                             []string
	noLocation, noTags               bool
}

func renderCard(c cardSpec) string {
	var b strings.Builder
	b.WriteString("<article>")
	if c.company != "" {
		fmt.Fprintf(&b, `<p class="Job_job-card__company__7T9qY">%s</p>`, c.company)
	}
	if c.title != "" {
		fmt.Fprintf(&b, `<p class="Job_job-card__position__ic1rc">%s</p>`, c.title)
	}
	if !c.noLocation {
		fmt.Fprintf(&b, `<div class="Job_job-card__locations__x1exr">%s</div>`, c.location)
	}
	if c.posted != "" {
		fmt.Fprintf(&b, `<p class="Job_job-card__posted-on__NCZaJ">%s</p>`, c.posted)
	}
	if !c.noTags {
		b.WriteString(`<div class="Job_job-card__tags__zfriA">`)
		for _, tag := range c.tags {
			fmt.Fprintf(&b, `<a href="#">%s</a>`, tag)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString("</article>")
	return b.String()
}

func extractCard(t *testing.T, c cardSpec) *models.Listing {
	t.Helper()
	doc, err := htmldoc.Parse("<html><body>" + renderCard(c) + "</body></html>")
	require.NoError(t, err)
	card, err := doc.Find("article")
	require.NoError(t, err)

	l, err := NewExtractor(DefaultSelectors()).Extract(context.Background(), card)
	require.NoError(t, err)
	return l
}

func TestExtract_AllFields(t *testing.T) {
	l := extractCard(t, cardSpec{
		title:    " Senior Pricing Actuary ",
		company:  "Acme Re",
		location: "📍 $50,000\nNew York, NY\nHybrid",
		posted:   "2 days ago",
		tags:     []string{"Pricing", " ", "Reinsurance"},
	})

	assert.Equal(t, "Senior Pricing Actuary", l.Title)
	assert.Equal(t, "Acme Re", l.Company)
	assert.Equal(t, "New York, NY, Hybrid", l.Location)
	assert.Equal(t, "2 days ago", l.PostingDate)
	assert.Equal(t, []string{"Pricing", "Reinsurance"}, l.Tags)
	assert.Equal(t, models.JobTypeFullTime, l.JobType)
}

func TestExtract_Defaults(t *testing.T) {
	l := extractCard(t, cardSpec{noLocation: true, noTags: true})

	assert.Equal(t, DefaultTitle, l.Title)
	assert.Equal(t, DefaultCompany, l.Company)
	assert.Equal(t, DefaultLocation, l.Location)
	assert.Equal(t, DefaultPostingDate, l.PostingDate)
	assert.Equal(t, []string{"Actuary", "Insurance"}, l.Tags)
}

func TestExtract_EmptyLocationAndTagContainers(t *testing.T) {
	l := extractCard(t, cardSpec{title: "Actuary", company: "X", location: "💰 $90k\n  \n🏠 Remote"})

	assert.Equal(t, DefaultLocationNoLines, l.Location)
	assert.Equal(t, DefaultTags, l.Tags)
}

func TestExtract_LocationFromSiblingElements(t *testing.T) {
	l := extractCard(t, cardSpec{
		title:    "Actuary",
		company:  "X",
		location: "<span>📍 $50,000</span><span>New York, NY</span><span>Hybrid</span>",
	})

	assert.Equal(t, "New York, NY, Hybrid", l.Location)
}

// brokenTextElement resolves children but cannot read its own text.
type brokenTextElement struct {
	child scraper.Element
}

func (e brokenTextElement) Text() (string, error) { return "", errors.New("node detached") }
func (e brokenTextElement) Find(string) (scraper.Element, error) {
	return e.child, nil
}
func (e brokenTextElement) FindAll(string) ([]scraper.Element, error) {
	return nil, nil
}
func (brokenTextElement) Visible() bool { return true }
func (brokenTextElement) Enabled() bool { return true }

func TestExtract_UnreadableLocationContainer(t *testing.T) {
	x := NewExtractor(DefaultSelectors())
	card := brokenTextElement{child: brokenTextElement{}}

	assert.Equal(t, DefaultLocation, x.location(card))
}

func TestExtract_TagsCapped(t *testing.T) {
	tags := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	l := extractCard(t, cardSpec{title: "Actuary", company: "X", tags: tags})

	assert.Equal(t, tags[:MaxTags], l.Tags)
}

func TestExtract_JobType(t *testing.T) {
	assert.Equal(t, models.JobTypeInternship, extractCard(t, cardSpec{title: "Actuarial Intern", company: "X"}).JobType)
	assert.Equal(t, models.JobTypeContract, extractCard(t, cardSpec{title: "Senior Actuary", company: "X", tags: []string{"Contract"}}).JobType)
	assert.Equal(t, models.JobTypeFullTime, extractCard(t, cardSpec{title: "Actuary", company: "X"}).JobType)
}

func TestExtract_NilAndCancelled(t *testing.T) {
	x := NewExtractor(DefaultSelectors())

	_, err := x.Extract(context.Background(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc, err := htmldoc.Parse("<article></article>")
	require.NoError(t, err)
	_, err = x.Extract(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"pictograph lines dropped", "📍 $50,000\nNew York, NY\nHybrid", "New York, NY, Hybrid"},
		{"first three kept", "London\nUK\nHybrid\nVisa", "London, UK, Hybrid"},
		{"emoticon and transport ranges", "😀 fun\n🚀 fast\nChicago", "Chicago"},
		{"only blank lines", "\n \n\t", "Not Specified"},
		{"single line", "  Remote  ", "Remote"},
		{"symbol outside range kept", "★ Hartford, CT", "★ Hartford, CT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLocation(tt.in))
		})
	}
}

// panicElement mimics a driver adapter that blows up mid-extraction.
type panicElement struct{}

func (panicElement) Text() (string, error)                      { panic("driver disconnected") }
func (panicElement) Find(string) (scraper.Element, error)       { panic("driver disconnected") }
func (panicElement) FindAll(string) ([]scraper.Element, error) { panic("driver disconnected") }
func (panicElement) Visible() bool                              { return true }
func (panicElement) Enabled() bool                              { return true }

func TestSafeExtract_RecoversPanic(t *testing.T) {
	s := New(Options{})

	l, err := s.safeExtract(context.Background(), panicElement{})
	assert.Nil(t, l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver disconnected")
}
