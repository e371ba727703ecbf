package ports

import (
	"context"

	"ecolabel/internal/domain"
)

type ScoreJob struct {
	ID        string
	ProductID string
}

// JobRepository supports queueing, claiming and finishing scoring jobs.
type JobRepository interface {
	EnqueueJob(ctx context.Context, productID string) (jobID string, err error)
	ClaimNext(ctx context.Context) (job ScoreJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	StartJobForProduct(ctx context.Context, productID string) (jobID string, err error)
	GetJob(ctx context.Context, jobID string) (domain.Job, error)
}
