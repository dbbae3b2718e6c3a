package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	domainerrors "go-actuarylist-scraper/internal/errors"
	"go-actuarylist-scraper/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           BIGSERIAL PRIMARY KEY,
	title        VARCHAR(255) NOT NULL,
	company      VARCHAR(255) NOT NULL,
	location     VARCHAR(255) NOT NULL,
	posting_date VARCHAR(100),
	job_type     VARCHAR(50) DEFAULT 'Full-time',
	tags         TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_jobs_title_company ON jobs (title, company);`

const jobColumns = `id, title, company, location, COALESCE(posting_date, ''), COALESCE(job_type, ''), COALESCE(tags, ''), created_at, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Transaction-mode poolers (PgBouncer, Supabase) reject cached prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Migrate creates the jobs table if it is missing. Existing tables are left as is.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Version reports the server version string.
func (r *Repository) Version(ctx context.Context) (string, error) {
	var version string
	if err := r.db.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query version: %w", err)
	}
	return version, nil
}

func (r *Repository) CountJobs(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM jobs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return n, nil
}

// ---------------- JOB OPERATIONS ----------------

func (r *Repository) ListJobs(ctx context.Context, f models.JobFilter) ([]models.Job, error) {
	query, args := buildListQuery(f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domainerrors.Internal("failed to list jobs", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, domainerrors.Internal("failed to scan job", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Internal("failed to list jobs", err)
	}
	return jobs, nil
}

// buildListQuery renders the filtered job listing. Text filters are
// case-insensitive substring matches.
func buildListQuery(f models.JobFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.JobType != "" {
		where = append(where, "job_type = "+arg(f.JobType))
	}
	if f.Location != "" {
		where = append(where, "location ILIKE "+arg(likePattern(f.Location)))
	}
	if f.Tag != "" {
		where = append(where, "tags ILIKE "+arg(likePattern(f.Tag)))
	}
	if f.Search != "" {
		p := arg(likePattern(f.Search))
		where = append(where, "(title ILIKE "+p+" OR company ILIKE "+p+")")
	}

	var b strings.Builder
	b.WriteString("SELECT " + jobColumns + " FROM jobs")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	switch f.Sort {
	case "", models.SortPostingDateDesc:
		b.WriteString(" ORDER BY created_at DESC, id DESC")
	case models.SortPostingDateAsc:
		b.WriteString(" ORDER BY created_at ASC, id ASC")
	default:
		b.WriteString(" ORDER BY id ASC")
	}
	return b.String(), args
}

func likePattern(s string) string {
	return "%" + s + "%"
}

func (r *Repository) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	row := r.db.QueryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = $1", id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.NotFound("Job not found", err)
		}
		return nil, domainerrors.Internal("failed to get job", err)
	}
	return job, nil
}

func (r *Repository) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	query := `
		INSERT INTO jobs (title, company, location, posting_date, job_type, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + jobColumns

	created, err := scanJob(r.db.QueryRow(ctx, query,
		job.Title, job.Company, job.Location, job.PostingDate, string(job.JobType), models.JoinTags(job.Tags)))
	if err != nil {
		return nil, domainerrors.Internal("failed to create job", err)
	}
	return created, nil
}

// UpdateJob applies the non-nil fields of patch and bumps updated_at.
func (r *Repository) UpdateJob(ctx context.Context, id int64, patch models.JobPatch) (*models.Job, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Company != nil {
		set("company", *patch.Company)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.PostingDate != nil {
		set("posting_date", *patch.PostingDate)
	}
	if patch.JobType != nil {
		set("job_type", string(*patch.JobType))
	}
	if patch.Tags != nil {
		set("tags", models.JoinTags(*patch.Tags))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE jobs SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), jobColumns)

	job, err := scanJob(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.NotFound("Job not found", err)
		}
		return nil, domainerrors.Internal("failed to update job", err)
	}
	return job, nil
}

func (r *Repository) DeleteJob(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM jobs WHERE id = $1", id)
	if err != nil {
		return domainerrors.Internal("failed to delete job", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.NotFound("Job not found", nil)
	}
	return nil
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var (
		job     models.Job
		jobType string
		tags    string
	)
	if err := row.Scan(&job.ID, &job.Title, &job.Company, &job.Location, &job.PostingDate,
		&jobType, &tags, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.JobType = models.JobType(jobType)
	job.Tags = models.SplitTags(tags)
	return &job, nil
}
