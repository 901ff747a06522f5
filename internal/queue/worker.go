package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailloop/internal/metrics"
)

// QueueProcessor is what the worker drives once per tick.
type QueueProcessor interface {
	ProcessQueue(ctx context.Context) (int, error)
}

type Worker struct {
	Processor QueueProcessor
	Interval  time.Duration
	Log       *zap.Logger
}

// Start runs one processing cycle immediately, then one per interval,
// until the returned stop function is called. A failing cycle is
// logged and skipped; the next tick still runs. stop blocks until the
// worker goroutine has exited.
func (w *Worker) Start() (stop func()) {
	interval := w.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		log.Info("queue worker started", zap.Duration("interval", interval))

		w.runCycle(ctx, log)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("queue worker stopped")
				return
			case <-ticker.C:
				w.runCycle(ctx, log)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (w *Worker) runCycle(ctx context.Context, log *zap.Logger) {
	if ctx.Err() != nil {
		return
	}

	metrics.QueueCycles.Inc()

	n, err := w.Processor.ProcessQueue(ctx)
	if err != nil {
		log.Error("queue cycle failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("queue cycle complete", zap.Int("processed", n))
	}
}
