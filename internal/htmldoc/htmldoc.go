// Package htmldoc serves saved HTML snapshots through the scraper.Page
// capability, so a recorded crawl can be replayed without a browser.
package htmldoc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-actuarylist-scraper/internal/scraper"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrUnsupportedSelector is returned for selector engines a static document
// cannot evaluate (xpath=...).
var ErrUnsupportedSelector = errors.New("unsupported selector")

// compile translates the Playwright selector dialect to CSS understood by cascadia.
func compile(selector string) (cascadia.Selector, error) {
	if strings.HasPrefix(selector, "xpath=") || strings.HasPrefix(selector, "//") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSelector, selector)
	}
	css := strings.ReplaceAll(selector, ":has-text(", ":contains(")
	sel, err := cascadia.Compile(css)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", selector, err)
	}
	return sel, nil
}

// Element wraps a single-node goquery selection.
type Element struct {
	sel *goquery.Selection
}

// Text approximates the browser's innerText: every element boundary except
// inline phrasing tags starts a new line, and whitespace within a line collapses.
func (e *Element) Text() (string, error) {
	var b strings.Builder
	for _, n := range e.sel.Nodes {
		writeText(&b, n)
	}
	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "code": true, "em": true, "i": true,
	"mark": true, "small": true, "strong": true, "sub": true, "sup": true, "u": true,
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "template", "head":
			return
		case "br":
			b.WriteByte('\n')
			return
		}
	}
	block := n.Type == html.ElementNode && !inlineTags[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

func (e *Element) Find(selector string) (scraper.Element, error) {
	return first(e.sel, selector)
}

func (e *Element) FindAll(selector string) ([]scraper.Element, error) {
	return all(e.sel, selector)
}

// Visible is false for nodes hidden by attribute or inline style.
func (e *Element) Visible() bool {
	if _, hidden := e.sel.Attr("hidden"); hidden {
		return false
	}
	style := strings.ReplaceAll(strings.ToLower(e.sel.AttrOr("style", "")), " ", "")
	return !strings.Contains(style, "display:none") && !strings.Contains(style, "visibility:hidden")
}

func (e *Element) Enabled() bool {
	if _, disabled := e.sel.Attr("disabled"); disabled {
		return false
	}
	return e.sel.AttrOr("aria-disabled", "") != "true"
}

func first(root *goquery.Selection, selector string) (scraper.Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	found := root.FindMatcher(m).First()
	if found.Length() == 0 {
		return nil, scraper.ErrNotFound
	}
	return &Element{sel: found}, nil
}

func all(root *goquery.Selection, selector string) ([]scraper.Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	var out []scraper.Element
	root.FindMatcher(m).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out, nil
}

// SnapshotPage replays a fixed sequence of documents. Navigate shows the first
// one; each Click advances to the next, which is how a recorded pager behaves.
type SnapshotPage struct {
	docs    []*goquery.Document
	current int
	clicks  int
}

func NewSnapshotPage(pages ...string) (*SnapshotPage, error) {
	p := &SnapshotPage{current: -1}
	for i, html := range pages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("parse snapshot %d: %w", i+1, err)
		}
		p.docs = append(p.docs, doc)
	}
	return p, nil
}

// LoadDir reads every *.html file in dir in lexical order.
func LoadDir(dir string) (*SnapshotPage, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	pages := make([]string, 0, len(paths))
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		pages = append(pages, string(b))
	}
	return NewSnapshotPage(pages...)
}

func (p *SnapshotPage) root() (*goquery.Selection, error) {
	if p.current < 0 || p.current >= len(p.docs) {
		return nil, errors.New("no document loaded")
	}
	return p.docs[p.current].Selection, nil
}

// Navigate ignores url and shows the first snapshot.
func (p *SnapshotPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p.docs) == 0 {
		return fmt.Errorf("navigate %s: no snapshots loaded", url)
	}
	p.current = 0
	return nil
}

// WaitFor checks once; a static document never changes.
func (p *SnapshotPage) WaitFor(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	els, err := p.FindAll(selector)
	if err != nil {
		return err
	}
	if len(els) == 0 {
		return scraper.ErrWaitTimeout
	}
	return nil
}

func (p *SnapshotPage) Find(selector string) (scraper.Element, error) {
	root, err := p.root()
	if err != nil {
		return nil, err
	}
	return first(root, selector)
}

func (p *SnapshotPage) FindAll(selector string) ([]scraper.Element, error) {
	root, err := p.root()
	if err != nil {
		return nil, err
	}
	return all(root, selector)
}

func (p *SnapshotPage) ScrollToBottom() error { return nil }

func (p *SnapshotPage) ScrollTo(scraper.Element) error { return nil }

func (p *SnapshotPage) Click(el scraper.Element) error {
	if _, ok := el.(*Element); !ok {
		return fmt.Errorf("click: foreign element %T", el)
	}
	if p.current+1 >= len(p.docs) {
		return errors.New("click: no further snapshot")
	}
	p.current++
	p.clicks++
	return nil
}

// Clicks counts successful Click calls.
func (p *SnapshotPage) Clicks() int {
	return p.clicks
}

// Parse returns the single-document page as an Element rooted at <html>,
// handy for extracting one card.
func Parse(html string) (*Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Element{sel: doc.Selection}, nil
}
