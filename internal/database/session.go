package database

import (
	"context"
	"errors"
	"fmt"

	"go-actuarylist-scraper/internal/models"

	"github.com/jackc/pgx/v5"
)

// Session is the write side used by the scrape sink. It holds one open
// transaction at a time, begun lazily on first use and ended by Commit or
// Rollback. Each lookup and insert runs under a savepoint so a failed
// statement does not poison the rest of the batch.
type Session struct {
	repo *Repository
	tx   pgx.Tx
}

func (r *Repository) NewSession() *Session {
	return &Session{repo: r}
}

func (s *Session) begin(ctx context.Context) (pgx.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.repo.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// FindByNaturalKey reports whether a job with this title and company exists,
// including rows inserted earlier in the open transaction. The lookup runs
// under its own savepoint so a failed query leaves the batch usable.
func (s *Session) FindByNaturalKey(ctx context.Context, title, company string) (bool, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return false, err
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("savepoint: %w", err)
	}
	var exists bool
	err = sp.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM jobs WHERE title = $1 AND company = $2)",
		title, company).Scan(&exists)
	if err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return false, errors.Join(fmt.Errorf("lookup job: %w", err), fmt.Errorf("rollback savepoint: %w", rbErr))
		}
		return false, fmt.Errorf("lookup job: %w", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return false, fmt.Errorf("release savepoint: %w", err)
	}
	return exists, nil
}

func (s *Session) Insert(ctx context.Context, l models.Listing) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	_, err = sp.Exec(ctx, `
		INSERT INTO jobs (title, company, location, posting_date, job_type, tags)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.Title, l.Company, l.Location, l.PostingDate, string(l.JobType), models.JoinTags(l.Tags))
	if err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return errors.Join(fmt.Errorf("insert job: %w", err), fmt.Errorf("rollback savepoint: %w", rbErr))
		}
		return fmt.Errorf("insert job: %w", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// Commit ends the open transaction. It is a no-op when nothing was begun.
func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
