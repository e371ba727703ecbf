package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"ecolabel/internal/domain"
	"ecolabel/internal/ports"
)

func (db *DB) EnqueueJob(ctx context.Context, productID string) (string, error) {
	if err := checkID(productID); err != nil {
		return "", err
	}
	var jobID string
	err := db.Pool.QueryRow(ctx, `INSERT INTO score_jobs (product_id) VALUES ($1) RETURNING id::text`, productID).Scan(&jobID)
	return jobID, err
}

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.ScoreJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id::text, product_id::text FROM score_jobs
        WHERE status = 'queued'
        ORDER BY queued_at
        FOR UPDATE SKIP LOCKED
        LIMIT 1
    `).Scan(&job.ID, &job.ProductID)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}

	if _, err = tx.Exec(ctx, `
        UPDATE score_jobs SET status = 'running', started_at = now(), attempts = attempts + 1 WHERE id = $1
    `, job.ID); err != nil {
		return job, false, err
	}
	return job, true, nil
}

func (db *DB) finishJob(ctx context.Context, jobID string, status domain.JobStatus, reason string) error {
	if err := checkID(jobID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, `
        UPDATE score_jobs SET status = $2, error = $3, finished_at = now() WHERE id = $1
    `, jobID, status, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	return db.finishJob(ctx, jobID, domain.JobCompleted, "")
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return db.finishJob(ctx, jobID, domain.JobFailed, reason)
}

// StartJobForProduct marks the product's queued job as running and returns
// its id. Without a queued job a new running one is created.
func (db *DB) StartJobForProduct(ctx context.Context, productID string) (jobID string, err error) {
	if err := checkID(productID); err != nil {
		return "", err
	}
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id::text FROM score_jobs
        WHERE product_id = $1 AND status = 'queued'
        ORDER BY queued_at
        FOR UPDATE SKIP LOCKED
        LIMIT 1
    `, productID).Scan(&jobID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `
            INSERT INTO score_jobs (product_id, status, started_at, attempts)
            VALUES ($1, 'running', now(), 1)
            RETURNING id::text
        `, productID).Scan(&jobID)
		return jobID, err
	}
	if err != nil {
		return "", err
	}
	if _, err = tx.Exec(ctx, `
        UPDATE score_jobs SET status = 'running', started_at = now(), attempts = attempts + 1 WHERE id = $1
    `, jobID); err != nil {
		return "", err
	}
	return jobID, nil
}

func (db *DB) GetJob(ctx context.Context, jobID string) (domain.Job, error) {
	if err := checkID(jobID); err != nil {
		return domain.Job{}, err
	}
	var j domain.Job
	err := db.Pool.QueryRow(ctx, `
        SELECT id::text, product_id::text, status, attempts, error, queued_at, started_at, finished_at
        FROM score_jobs WHERE id = $1
    `, jobID).Scan(&j.ID, &j.ProductID, &j.Status, &j.Attempts, &j.Error, &j.QueuedAt, &j.StartedAt, &j.FinishedAt)
	return j, notFound(err)
}
