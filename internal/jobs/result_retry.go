package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PendingResult is one interview outcome whose durable write failed at
// completion time and is waiting to be re-driven.
type PendingResult struct {
	ApplicationID uint
	AverageScore  float64
	Status        string
	Attempts      int
	FirstFailedAt time.Time
}

// ResultQueue buffers failed persistence writes. The interview engine pushes
// into it on sink failure; the retry job drains it on schedule.
type ResultQueue struct {
	mu    sync.Mutex
	items []PendingResult
}

func NewResultQueue() *ResultQueue {
	return &ResultQueue{}
}

func (q *ResultQueue) Enqueue(result PendingResult) {
	if result.FirstFailedAt.IsZero() {
		result.FirstFailedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, result)
}

func (q *ResultQueue) drain() []PendingResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

func (q *ResultQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ResultWriter is the durable sink the retries go to.
type ResultWriter interface {
	UpdateInterviewResult(ctx context.Context, applicationID uint, averageScore float64, status string) error
}

// RetryConfig contains configuration for the retry job.
type RetryConfig struct {
	Schedule    string // cron schedule, e.g. "*/5 * * * *"
	Enabled     bool
	MaxAttempts int // drop a result after this many failed retries
}

// ResultRetryJob re-drives interview results whose first write failed, closing
// the eventual-consistency gap between the in-memory verdict and the
// application record.
type ResultRetryJob struct {
	queue  *ResultQueue
	writer ResultWriter
	config *RetryConfig
	cron   *cron.Cron
	logger *zap.Logger
}

func NewResultRetryJob(queue *ResultQueue, writer ResultWriter, config *RetryConfig, logger *zap.Logger) *ResultRetryJob {
	return &ResultRetryJob{
		queue:  queue,
		writer: writer,
		config: config,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start begins the scheduled retry job.
func (job *ResultRetryJob) Start() error {
	if !job.config.Enabled {
		job.logger.Info("Result retry job is disabled, skipping scheduler")
		return nil
	}

	_, err := job.cron.AddFunc(job.config.Schedule, func() {
		job.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	job.cron.Start()
	job.logger.Info("Result retry job started", zap.String("schedule", job.config.Schedule))
	return nil
}

// Stop stops the scheduled retry job.
func (job *ResultRetryJob) Stop() {
	if job.cron != nil {
		job.cron.Stop()
	}
}

// RunOnce performs a single retry pass. Results that fail again are
// re-enqueued until MaxAttempts is reached, then dropped with an error log;
// at that point a human HR review is the backstop.
func (job *ResultRetryJob) RunOnce(ctx context.Context) {
	pending := job.queue.drain()
	if len(pending) == 0 {
		return
	}

	job.logger.Info("Retrying failed interview result writes", zap.Int("count", len(pending)))

	for _, result := range pending {
		err := job.writer.UpdateInterviewResult(ctx, result.ApplicationID, result.AverageScore, result.Status)
		if err == nil {
			job.logger.Info("Recovered interview result write",
				zap.Uint("application_id", result.ApplicationID),
				zap.Int("attempts", result.Attempts+1))
			continue
		}

		result.Attempts++
		if job.config.MaxAttempts > 0 && result.Attempts >= job.config.MaxAttempts {
			job.logger.Error("Dropping interview result after max retries",
				zap.Uint("application_id", result.ApplicationID),
				zap.Float64("average_score", result.AverageScore),
				zap.String("status", result.Status),
				zap.Error(err))
			continue
		}

		job.logger.Warn("Interview result write failed again, re-queueing",
			zap.Uint("application_id", result.ApplicationID),
			zap.Int("attempts", result.Attempts),
			zap.Error(err))
		job.queue.Enqueue(result)
	}
}
