package scorerunner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ecolabel/internal/domain"
	"ecolabel/internal/metrics"
	"ecolabel/internal/ports"
)

// Processor performs the scoring work for a job's product id.
type Processor interface {
	Process(ctx context.Context, productID string) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, productID string) error

func (f ProcessorFunc) Process(ctx context.Context, productID string) error { return f(ctx, productID) }

type Runner struct {
	repo         ports.JobRepository
	processor    Processor
	concurrency  int
	pollInterval time.Duration
	metrics      *metrics.Recorder
	log          *slog.Logger
}

func New(repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration, rec *metrics.Recorder, logger *slog.Logger) *Runner {
	return &Runner{
		repo:         repo,
		processor:    processor,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		metrics:      rec,
		log:          logger.With("component", "score_worker"),
	}
}

// Run claims and processes jobs until ctx is cancelled. It returns once every
// worker goroutine has exited.
func (r *Runner) Run(ctx context.Context) {
	if r.concurrency < 1 {
		return
	}
	jobsCh := make(chan ports.ScoreJob, r.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < r.concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for job := range jobsCh {
				r.handle(ctx, idx, job)
			}
		}(i)
	}

	r.dispatch(ctx, jobsCh)
	close(jobsCh)
	wg.Wait()
}

func (r *Runner) dispatch(ctx context.Context, jobsCh chan<- ports.ScoreJob) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				job, found, err := r.repo.ClaimNext(ctx)
				if err != nil {
					if ctx.Err() == nil {
						r.log.Error("job claim failed", "error", err)
					}
					break
				}
				if !found {
					break
				}
				select {
				case jobsCh <- job:
				case <-ctx.Done():
					// claimed but never handed to a worker
					_ = r.repo.MarkFailed(context.WithoutCancel(ctx), job.ID, "shutdown before processing")
					return
				}
			}
		}
	}
}

func (r *Runner) handle(ctx context.Context, idx int, job ports.ScoreJob) {
	log := r.log.With("worker", idx, "job_id", job.ID, "product_id", job.ProductID)
	if err := r.processor.Process(ctx, job.ProductID); err != nil {
		if merr := r.repo.MarkFailed(context.WithoutCancel(ctx), job.ID, err.Error()); merr != nil {
			log.Error("marking job failed", "error", merr)
		}
		r.metrics.JobFinished(string(domain.JobFailed))
		log.Warn("job failed", "error", err)
		return
	}
	if err := r.repo.MarkCompleted(context.WithoutCancel(ctx), job.ID); err != nil {
		log.Error("marking job completed", "error", err)
		return
	}
	r.metrics.JobFinished(string(domain.JobCompleted))
	log.Debug("job completed")
}

// ProcessInline runs the product's job synchronously with the same processor
// the background workers use: the job is marked running, processed, then
// completed or failed.
func ProcessInline(ctx context.Context, repo ports.JobRepository, processor Processor, productID string) (string, error) {
	jobID, err := repo.StartJobForProduct(ctx, productID)
	if err != nil {
		return "", err
	}
	if err := processor.Process(ctx, productID); err != nil {
		_ = repo.MarkFailed(context.WithoutCancel(ctx), jobID, err.Error())
		return jobID, err
	}
	return jobID, repo.MarkCompleted(context.WithoutCancel(ctx), jobID)
}
