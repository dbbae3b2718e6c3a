// Package persist writes scraped listings to the job store.
package persist

import (
	"context"
	"fmt"

	"go-actuarylist-scraper/internal/models"
	"go-actuarylist-scraper/internal/telemetry"

	"go.uber.org/zap"
)

const DefaultBatchSize = 50

var tracer = telemetry.GetTracer("actuarylist/persist")

// Session is a transactional handle on the store. Commit and Rollback end
// the current transaction; the next call begins a new one.
type Session interface {
	FindByNaturalKey(ctx context.Context, title, company string) (bool, error)
	Insert(ctx context.Context, l models.Listing) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Result struct {
	Saved      int `json:"saved"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// Sink inserts listings that are not already stored. It never updates or
// deletes existing rows.
type Sink struct {
	session   Session
	batchSize int
	logger    *zap.Logger
}

func NewSink(session Session, batchSize int, logger *zap.Logger) *Sink {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{session: session, batchSize: batchSize, logger: logger}
}

// Persist processes listings in order, committing after every batchSize
// inserts and once at the end. A failed insert is counted and skipped; a
// failed commit moves the whole batch from Saved to Errors. The returned
// error is non-nil only when the context ends the run early.
func (s *Sink) Persist(ctx context.Context, listings []models.Listing) (Result, error) {
	ctx, span := tracer.Start(ctx, "Sink.Persist")
	defer span.End()
	span.SetAttributes(telemetry.Int("listings", len(listings)))

	var (
		res     Result
		pending int
	)

	for i, l := range listings {
		if err := ctx.Err(); err != nil {
			s.rollback(ctx, &res, pending)
			return res, err
		}

		exists, err := s.session.FindByNaturalKey(ctx, l.Title, l.Company)
		if err != nil {
			res.Errors++
			s.logger.Warn("duplicate lookup failed", zap.Int("index", i), zap.String("title", l.Title), zap.Error(err))
			continue
		}
		if exists {
			res.Duplicates++
			continue
		}

		if err := s.session.Insert(ctx, l); err != nil {
			res.Errors++
			s.logger.Warn("insert failed", zap.Int("index", i), zap.String("title", l.Title), zap.String("company", l.Company), zap.Error(err))
			continue
		}
		res.Saved++
		pending++

		if pending == s.batchSize {
			s.commit(ctx, &res, pending)
			pending = 0
		}
	}

	s.commit(ctx, &res, pending)

	span.SetAttributes(
		telemetry.Int("saved", res.Saved),
		telemetry.Int("duplicates", res.Duplicates),
		telemetry.Int("errors", res.Errors),
	)
	s.logger.Info("listings persisted",
		zap.Int("saved", res.Saved),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("errors", res.Errors),
	)
	return res, nil
}

func (s *Sink) commit(ctx context.Context, res *Result, pending int) {
	err := s.session.Commit(ctx)
	if err == nil {
		if pending > 0 {
			s.logger.Debug("batch committed", zap.Int("rows", pending), zap.Int("saved", res.Saved))
		}
		return
	}
	s.logger.Error("commit failed, rolling back batch", zap.Int("rows", pending), zap.Error(err))
	s.rollback(ctx, res, pending)
}

func (s *Sink) rollback(ctx context.Context, res *Result, pending int) {
	// The context may already be done; the rollback still has to reach the store.
	if err := s.session.Rollback(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("rollback failed", zap.Error(err))
	}
	res.Saved -= pending
	res.Errors += pending
}

func (r Result) String() string {
	return fmt.Sprintf("saved=%d duplicates=%d errors=%d", r.Saved, r.Duplicates, r.Errors)
}
