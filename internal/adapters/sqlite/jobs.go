package sqlite

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ecolabel/internal/domain"
	"ecolabel/internal/ports"
)

func (s *Store) EnqueueJob(ctx context.Context, productID string) (string, error) {
	row := jobRow{ID: uuid.NewString(), ProductID: productID, Status: string(domain.JobQueued), QueuedAt: now()}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

// claim moves a queued job to running. It reports false when another claimer
// got there first.
func claim(tx *gorm.DB, jobID string) (bool, error) {
	t := now()
	res := tx.Model(&jobRow{}).
		Where("id = ? AND status = ?", jobID, string(domain.JobQueued)).
		Updates(map[string]any{
			"status":     string(domain.JobRunning),
			"started_at": t,
			"attempts":   gorm.Expr("attempts + 1"),
		})
	return res.RowsAffected == 1, res.Error
}

func (s *Store) ClaimNext(ctx context.Context) (ports.ScoreJob, bool, error) {
	var job ports.ScoreJob
	found := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row jobRow
		err := tx.Where("status = ?", string(domain.JobQueued)).Order("queued_at, rowid").First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ok, err := claim(tx, row.ID)
		if err != nil || !ok {
			return err
		}
		job, found = ports.ScoreJob{ID: row.ID, ProductID: row.ProductID}, true
		return nil
	})
	return job, found, err
}

func (s *Store) finish(ctx context.Context, jobID string, status domain.JobStatus, reason string) error {
	res := s.DB.WithContext(ctx).Model(&jobRow{}).Where("id = ?", jobID).Updates(map[string]any{
		"status":      string(status),
		"error":       reason,
		"finished_at": now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) MarkCompleted(ctx context.Context, jobID string) error {
	return s.finish(ctx, jobID, domain.JobCompleted, "")
}

func (s *Store) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return s.finish(ctx, jobID, domain.JobFailed, reason)
}

// StartJobForProduct marks the product's queued job as running and returns
// its id. Without a queued job a new running one is created.
func (s *Store) StartJobForProduct(ctx context.Context, productID string) (string, error) {
	var jobID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row jobRow
		err := tx.Where("product_id = ? AND status = ?", productID, string(domain.JobQueued)).
			Order("queued_at, rowid").First(&row).Error
		if err == nil {
			if ok, err := claim(tx, row.ID); err != nil || ok {
				jobID = row.ID
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		t := now()
		fresh := jobRow{
			ID: uuid.NewString(), ProductID: productID, Status: string(domain.JobRunning),
			Attempts: 1, QueuedAt: t, StartedAt: &t,
		}
		jobID = fresh.ID
		return tx.Create(&fresh).Error
	})
	return jobID, err
}

func (s *Store) GetJob(ctx context.Context, jobID string) (domain.Job, error) {
	var row jobRow
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", jobID).Error; err != nil {
		return domain.Job{}, notFound(err)
	}
	return domain.Job{
		ID: row.ID, ProductID: row.ProductID, Status: domain.JobStatus(row.Status),
		Attempts: row.Attempts, Error: row.Error,
		QueuedAt: row.QueuedAt, StartedAt: row.StartedAt, FinishedAt: row.FinishedAt,
	}, nil
}
