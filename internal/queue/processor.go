package queue

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mailloop/internal/metrics"
	"mailloop/internal/models"
)

// Store is the slice of the job table the processor needs.
type Store interface {
	FetchDueJobs(ctx context.Context, limit int) ([]models.EmailJob, error)
	MarkSent(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, nextRetryAt time.Time, errMsg string) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

// Sender delivers one message to the external provider.
type Sender interface {
	Send(ctx context.Context, job models.EmailJob) error
}

type Processor struct {
	Store     Store
	Sender    Sender
	Policy    RetryPolicy
	Limiter   *rate.Limiter
	BatchSize int
	Log       *zap.Logger
	Now       func() time.Time
}

// ProcessQueue handles one batch of due jobs sequentially and returns
// how many jobs were handled (sent, retried or failed). A send error
// affects only its own job; a store error fetching the batch aborts
// the cycle before any mutation.
func (p *Processor) ProcessQueue(ctx context.Context) (int, error) {
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	policy := p.Policy
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	limit := p.BatchSize
	if limit <= 0 {
		limit = 25
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	jobs, err := p.Store.FetchDueJobs(ctx, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, job := range jobs {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return processed, err
			}
		}

		sendErr := p.Sender.Send(ctx, job)
		if sendErr == nil {
			if err := p.Store.MarkSent(ctx, job.ID); err != nil {
				log.Error("failed to mark job sent",
					zap.Int64("job_id", job.ID),
					zap.Error(err),
				)
			}
			log.Info("email sent",
				zap.Int64("job_id", job.ID),
				zap.String("to", job.To),
				zap.Int("attempts", job.Attempts),
			)
			metrics.EmailsSent.Inc()
			processed++
			continue
		}

		attempts := job.Attempts + 1
		if policy.Exhausted(attempts) {
			if err := p.Store.MarkFailed(ctx, job.ID, sendErr.Error()); err != nil {
				log.Error("failed to mark job failed",
					zap.Int64("job_id", job.ID),
					zap.Error(err),
				)
			}
			log.Warn("email failed permanently",
				zap.Int64("job_id", job.ID),
				zap.String("to", job.To),
				zap.Int("attempts", attempts),
				zap.Error(sendErr),
			)
			metrics.EmailsFailed.Inc()
		} else {
			next := policy.NextRetryAt(now(), attempts)
			if err := p.Store.MarkRetry(ctx, job.ID, next, sendErr.Error()); err != nil {
				log.Error("failed to mark job for retry",
					zap.Int64("job_id", job.ID),
					zap.Error(err),
				)
			}
			log.Warn("email send failed, retry scheduled",
				zap.Int64("job_id", job.ID),
				zap.String("to", job.To),
				zap.Int("attempts", attempts),
				zap.Time("next_retry_at", next),
				zap.Error(sendErr),
			)
			metrics.EmailsRetried.Inc()
		}
		processed++
	}

	return processed, nil
}
