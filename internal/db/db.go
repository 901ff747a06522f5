package db

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailloop/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

// New opens a pgx pool and verifies connectivity. The initial ping is
// retried with exponential backoff so the service survives a database
// that comes up slightly after it.
func New(ctx context.Context, conn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, err
	}

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 15 * time.Second

	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// Enqueue inserts a new pending job, due immediately.
func (s *Store) Enqueue(ctx context.Context, job *models.EmailJob) error {
	return s.Pool.QueryRow(ctx,
		`INSERT INTO email_jobs
		 (to_email, subject, text_body, html_body, status, attempts, next_retry_at, created_at)
		 VALUES ($1,$2,$3,$4,$5,0,NOW(),NOW())
		 RETURNING id, created_at`,
		job.To,
		job.Subject,
		job.TextBody,
		job.HTMLBody,
		models.StatusPending,
	).Scan(&job.ID, &job.CreatedAt)
}

// FetchDueJobs returns pending jobs whose retry time has passed,
// oldest first, capped at limit.
func (s *Store) FetchDueJobs(ctx context.Context, limit int) ([]models.EmailJob, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, to_email, subject, text_body, html_body,
		        status, attempts, next_retry_at, error_msg, created_at, sent_at
		 FROM email_jobs
		 WHERE status = $1 AND next_retry_at <= NOW()
		 ORDER BY created_at
		 LIMIT $2`,
		models.StatusPending,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.EmailJob
	for rows.Next() {
		var j models.EmailJob
		var errMsg *string
		if err := rows.Scan(
			&j.ID, &j.To, &j.Subject, &j.TextBody, &j.HTMLBody,
			&j.Status, &j.Attempts, &j.NextRetryAt, &errMsg, &j.CreatedAt, &j.SentAt,
		); err != nil {
			return nil, err
		}
		if errMsg != nil {
			j.ErrorMsg = *errMsg
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, id int64) (models.EmailJob, error) {
	var j models.EmailJob
	var errMsg *string
	err := s.Pool.QueryRow(ctx,
		`SELECT id, to_email, subject, text_body, html_body,
		        status, attempts, next_retry_at, error_msg, created_at, sent_at
		 FROM email_jobs
		 WHERE id = $1`,
		id,
	).Scan(
		&j.ID, &j.To, &j.Subject, &j.TextBody, &j.HTMLBody,
		&j.Status, &j.Attempts, &j.NextRetryAt, &errMsg, &j.CreatedAt, &j.SentAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EmailJob{}, models.ErrNotFound
		}
		return models.EmailJob{}, err
	}
	if errMsg != nil {
		j.ErrorMsg = *errMsg
	}
	return j, nil
}

// MarkSent transitions a job to its sent terminal state and clears
// any error left by earlier attempts.
func (s *Store) MarkSent(ctx context.Context, id int64) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE email_jobs
		 SET status = $1,
		     sent_at = NOW(),
		     error_msg = NULL
		 WHERE id = $2`,
		models.StatusSent,
		id,
	)
	return err
}

// MarkRetry records one failed attempt and reschedules the job.
// The job stays pending.
func (s *Store) MarkRetry(ctx context.Context, id int64, nextRetryAt time.Time, errMsg string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE email_jobs
		 SET attempts = attempts + 1,
		     next_retry_at = $2,
		     error_msg = $3
		 WHERE id = $1`,
		id,
		nextRetryAt.UTC(),
		errMsg,
	)
	return err
}

// MarkFailed records the final failed attempt and transitions the job
// to its failed terminal state.
func (s *Store) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE email_jobs
		 SET status = $1,
		     attempts = attempts + 1,
		     error_msg = $2
		 WHERE id = $3`,
		models.StatusFailed,
		errMsg,
		id,
	)
	return err
}
