// Package pipeline runs one scrape: acquire a browser, walk the board,
// persist what was found and report the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go-actuarylist-scraper/internal/models"
	"go-actuarylist-scraper/internal/persist"
	"go-actuarylist-scraper/internal/scraper"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sampleSize = 5

// Launcher acquires a page. release frees every browser resource behind it.
type Launcher func(ctx context.Context) (page scraper.Page, release func(), err error)

type Persister interface {
	Persist(ctx context.Context, listings []models.Listing) (persist.Result, error)
}

// Notifier receives the final summary. Failures are logged, never fatal.
type Notifier interface {
	NotifySummary(ctx context.Context, s Summary) error
}

type Deps struct {
	Launch   Launcher
	Scraper  scraper.Scraper
	Sink     Persister
	Notifier Notifier // optional
	Logger   *zap.Logger
	Now      func() time.Time
}

type Summary struct {
	RunID            string               `json:"run_id"`
	Source           string               `json:"source"`
	StartedAt        time.Time            `json:"started_at"`
	FinishedAt       time.Time            `json:"finished_at"`
	PagesLoaded      int                  `json:"pages_loaded"`
	Pages            []scraper.PageReport `json:"pages,omitempty"`
	Scraped          int                  `json:"scraped"`
	MemoryDuplicates int                  `json:"memory_duplicates"`
	StoreDuplicates  int                  `json:"store_duplicates"`
	Saved            int                  `json:"saved"`
	Errors           int                  `json:"errors"`
	Failed           int                  `json:"failed"`
	Success          bool                 `json:"success"`
	Error            string               `json:"error,omitempty"`
	Sample           []models.Listing     `json:"sample,omitempty"`
	Failures         []scraper.Failure    `json:"failures,omitempty"`
}

func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// ExitCode is 0 for a successful run and 1 otherwise.
func (s Summary) ExitCode() int {
	if s.Success {
		return 0
	}
	return 1
}

var ErrNoListings = errors.New("no listings scraped")

// Run never panics: a panic anywhere below is recovered, logged with its
// stack and reported as a failed run. The browser is released on every path.
func Run(ctx context.Context, d Deps) (sum Summary) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	sum = Summary{RunID: uuid.NewString(), StartedAt: d.Now()}
	if d.Scraper != nil {
		sum.Source = d.Scraper.Name()
	}
	logger := d.Logger.With(zap.String("run_id", sum.RunID))
	logger.Info("scrape run started", zap.String("source", sum.Source))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("scrape run panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			sum.Success = false
			sum.Error = fmt.Sprintf("panic: %v", r)
		}
		sum.FinishedAt = d.Now()
		logSummary(logger, sum)
		notify(ctx, d.Notifier, sum, logger)
	}()

	page, release, err := d.Launch(ctx)
	if err != nil {
		sum.Error = fmt.Sprintf("browser launch: %v", err)
		return sum
	}
	defer release()

	res, err := d.Scraper.Scrape(ctx, page)
	if res != nil {
		sum.PagesLoaded = res.PagesLoaded
		sum.Pages = res.Pages
		sum.Scraped = len(res.Listings)
		sum.MemoryDuplicates = res.Duplicates
		sum.Failed = len(res.Failures)
		sum.Sample = head(res.Listings, sampleSize)
		sum.Failures = head(res.Failures, sampleSize)
	}
	if err != nil {
		sum.Error = fmt.Sprintf("scrape: %v", err)
		return sum
	}
	if sum.Scraped == 0 {
		sum.Error = ErrNoListings.Error()
		return sum
	}

	pr, err := d.Sink.Persist(ctx, res.Listings)
	sum.Saved = pr.Saved
	sum.StoreDuplicates = pr.Duplicates
	sum.Errors = pr.Errors
	if err != nil {
		sum.Error = fmt.Sprintf("persist: %v", err)
		return sum
	}

	sum.Success = true
	return sum
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[:n]
	}
	return append([]T(nil), s...)
}

func logSummary(logger *zap.Logger, s Summary) {
	fields := []zap.Field{
		zap.Bool("success", s.Success),
		zap.Int("pages_loaded", s.PagesLoaded),
		zap.Int("scraped", s.Scraped),
		zap.Int("memory_duplicates", s.MemoryDuplicates),
		zap.Int("store_duplicates", s.StoreDuplicates),
		zap.Int("saved", s.Saved),
		zap.Int("errors", s.Errors),
		zap.Int("failed", s.Failed),
		zap.Time("started_at", s.StartedAt),
		zap.Time("finished_at", s.FinishedAt),
		zap.Duration("duration", s.Duration()),
	}
	for _, p := range s.Pages {
		logger.Debug("page report",
			zap.Int("page", p.Page),
			zap.Int("found", p.Found),
			zap.Int("added", p.Added),
			zap.Int("duplicates", p.Duplicates),
			zap.Int("failed", p.Failed),
		)
	}
	for i, l := range s.Sample {
		logger.Info("sample job",
			zap.Int("n", i+1),
			zap.String("title", l.Title),
			zap.String("company", l.Company),
			zap.String("location", l.Location),
			zap.String("job_type", string(l.JobType)),
			zap.Strings("tags", l.Tags),
		)
	}
	for _, f := range s.Failures {
		logger.Warn("extraction failure", zap.Int("page", f.Page), zap.Int("position", f.Position), zap.String("error", f.Error))
	}

	if s.Success {
		logger.Info("scrape run finished", fields...)
		return
	}
	logger.Error("scrape run failed", append(fields, zap.String("error", s.Error))...)
}

func notify(ctx context.Context, n Notifier, s Summary, logger *zap.Logger) {
	if n == nil {
		return
	}
	if err := n.NotifySummary(context.WithoutCancel(ctx), s); err != nil {
		logger.Warn("summary notification failed", zap.Error(err))
	}
}
