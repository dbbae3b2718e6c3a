package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-actuarylist-scraper/internal/htmldoc"
	"go-actuarylist-scraper/internal/models"
	"go-actuarylist-scraper/internal/persist"
	"go-actuarylist-scraper/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubScraper struct {
	res   *scraper.Result
	err   error
	panic any
}

func (s *stubScraper) Name() string { return "Stub" }

func (s *stubScraper) Scrape(context.Context, scraper.Page) (*scraper.Result, error) {
	if s.panic != nil {
		panic(s.panic)
	}
	return s.res, s.err
}

type stubSink struct {
	calls int
	res   persist.Result
	err   error
}

func (s *stubSink) Persist(_ context.Context, l []models.Listing) (persist.Result, error) {
	s.calls++
	if s.res == (persist.Result{}) && s.err == nil {
		return persist.Result{Saved: len(l)}, nil
	}
	return s.res, s.err
}

type recordingNotifier struct {
	got []Summary
	err error
}

func (n *recordingNotifier) NotifySummary(_ context.Context, s Summary) error {
	n.got = append(n.got, s)
	return n.err
}

type launchCounter struct {
	launched, released int
	err                error
}

func (l *launchCounter) launch(context.Context) (scraper.Page, func(), error) {
	if l.err != nil {
		return nil, nil, l.err
	}
	l.launched++
	page, err := htmldoc.NewSnapshotPage("<html></html>")
	if err != nil {
		return nil, nil, err
	}
	return page, func() { l.released++ }, nil
}

func listings(n int) []models.Listing {
	out := make([]models.Listing, n)
	for i := range out {
		out[i] = models.Listing{Title: "Actuary", Company: string(rune('A' + i))}
	}
	return out
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestRun_Success(t *testing.T) {
	lc := &launchCounter{}
	sink := &stubSink{}
	notifier := &recordingNotifier{}
	res := &scraper.Result{
		Listings:    listings(7),
		PagesLoaded: 3,
		Pages:       []scraper.PageReport{{Page: 1, Found: 5, Added: 4, Failed: 1}, {Page: 2, Found: 2, Added: 2}, {Page: 3, Found: 1, Added: 1}},
		Duplicates:  2,
		Failures:    []scraper.Failure{{Page: 1, Position: 4, Error: "boom"}},
	}

	sum := Run(context.Background(), Deps{
		Launch:   lc.launch,
		Scraper:  &stubScraper{res: res},
		Sink:     sink,
		Notifier: notifier,
		Logger:   zaptest.NewLogger(t),
		Now:      fixedClock(),
	})

	assert.True(t, sum.Success)
	assert.Equal(t, 0, sum.ExitCode())
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, "Stub", sum.Source)
	assert.Equal(t, 3, sum.PagesLoaded)
	assert.Equal(t, res.Pages, sum.Pages)
	assert.Equal(t, 7, sum.Scraped)
	assert.Equal(t, 2, sum.MemoryDuplicates)
	assert.Equal(t, 7, sum.Saved)
	assert.Equal(t, 1, sum.Failed)
	assert.Len(t, sum.Sample, sampleSize)
	assert.Equal(t, time.Second, sum.Duration())
	assert.Equal(t, 1, lc.released)
	require.Len(t, notifier.got, 1)
	assert.Equal(t, sum.RunID, notifier.got[0].RunID)
}

func TestRun_ZeroListingsFails(t *testing.T) {
	lc := &launchCounter{}
	sink := &stubSink{}

	sum := Run(context.Background(), Deps{
		Launch:  lc.launch,
		Scraper: &stubScraper{res: &scraper.Result{PagesLoaded: 1}},
		Sink:    sink,
	})

	assert.False(t, sum.Success)
	assert.Equal(t, 1, sum.ExitCode())
	assert.Equal(t, ErrNoListings.Error(), sum.Error)
	assert.Equal(t, 0, sink.calls, "nothing is persisted")
	assert.Equal(t, 1, lc.released)
}

func TestRun_ScrapeErrorKeepsPartialCounts(t *testing.T) {
	lc := &launchCounter{}
	sink := &stubSink{}

	sum := Run(context.Background(), Deps{
		Launch:  lc.launch,
		Scraper: &stubScraper{res: &scraper.Result{}, err: errors.New("initial page load failed")},
		Sink:    sink,
	})

	assert.False(t, sum.Success)
	assert.Contains(t, sum.Error, "initial page load failed")
	assert.Equal(t, 0, sink.calls)
	assert.Equal(t, 1, lc.released)
}

func TestRun_PanicReleasesBrowser(t *testing.T) {
	lc := &launchCounter{}
	notifier := &recordingNotifier{err: errors.New("telegram down")}

	sum := Run(context.Background(), Deps{
		Launch:   lc.launch,
		Scraper:  &stubScraper{panic: "nil map write"},
		Sink:     &stubSink{},
		Notifier: notifier,
		Logger:   zaptest.NewLogger(t),
	})

	assert.False(t, sum.Success)
	assert.Equal(t, "panic: nil map write", sum.Error)
	assert.Equal(t, 1, lc.released)
	assert.Len(t, notifier.got, 1)
	assert.False(t, sum.FinishedAt.IsZero())
}

func TestRun_LaunchFailure(t *testing.T) {
	lc := &launchCounter{err: errors.New("chromium missing")}

	sum := Run(context.Background(), Deps{Launch: lc.launch, Scraper: &stubScraper{}, Sink: &stubSink{}})

	assert.False(t, sum.Success)
	assert.Contains(t, sum.Error, "chromium missing")
	assert.Equal(t, 0, lc.released)
}

func TestRun_PersistError(t *testing.T) {
	lc := &launchCounter{}
	sink := &stubSink{res: persist.Result{Saved: 1, Errors: 1}, err: context.Canceled}

	sum := Run(context.Background(), Deps{
		Launch:  lc.launch,
		Scraper: &stubScraper{res: &scraper.Result{Listings: listings(2), PagesLoaded: 1}},
		Sink:    sink,
	})

	assert.False(t, sum.Success)
	assert.Equal(t, 1, sum.Saved)
	assert.Equal(t, 1, sum.Errors)
	assert.Contains(t, sum.Error, "persist")
}
