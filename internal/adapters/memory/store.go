// Package memory is a process-local Store. It backs offline scoring from the
// command line and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ecolabel/internal/domain"
	"ecolabel/internal/ports"
)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	lcas     map[string]domain.LCARecord
	scores   map[string]domain.ScoreRecord
	products map[string]domain.Product
	jobs     map[string]*domain.Job
	queue    []string
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		lcas:     map[string]domain.LCARecord{},
		scores:   map[string]domain.ScoreRecord{},
		products: map[string]domain.Product{},
		jobs:     map[string]*domain.Job{},
	}
}

// tick returns strictly increasing timestamps so "newest first" ordering is
// stable even when the clock does not advance between inserts.
func (s *Store) tick(last time.Time) time.Time {
	t := s.now()
	if !t.After(last) {
		t = last.Add(time.Microsecond)
	}
	return t
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateLCA(_ context.Context, rec domain.LCARecord) (domain.LCARecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now()
	s.lcas[rec.ID] = rec
	return rec, nil
}

func (s *Store) GetLCA(_ context.Context, id string) (domain.LCARecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lcas[id]
	if !ok {
		return domain.LCARecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (s *Store) CreateScore(_ context.Context, rec domain.ScoreRecord) (domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last time.Time
	for _, r := range s.scores {
		if r.CreatedAt.After(last) {
			last = r.CreatedAt
		}
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.tick(last)
	s.scores[rec.ID] = rec
	return rec, nil
}

func (s *Store) GetScore(_ context.Context, id string) (domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.scores[id]
	if !ok {
		return domain.ScoreRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (s *Store) ListScoresByProduct(_ context.Context, productID string) ([]domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.ScoreRecord{}
	for _, r := range s.scores {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) LatestScore(ctx context.Context, productID string) (bool, domain.ScoreRecord, error) {
	list, err := s.ListScoresByProduct(ctx, productID)
	if err != nil || len(list) == 0 {
		return false, domain.ScoreRecord{}, err
	}
	return true, list[0], nil
}

func (s *Store) CreateProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if p.GTIN != "" {
		for id, existing := range s.products {
			if existing.GTIN == p.GTIN {
				existing.Title, existing.Brand = p.Title, p.Brand
				existing.IngredientsText, existing.Packaging = p.IngredientsText, p.Packaging
				existing.WeightKg, existing.Origin, existing.Status = p.WeightKg, p.Origin, p.Status
				existing.UpdatedAt = now
				s.products[id] = existing
				return existing, nil
			}
		}
	}
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.products[p.ID] = p
	return nil
}

func (s *Store) GetProduct(_ context.Context, id string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetProductByGTIN(_ context.Context, gtin string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.GTIN == gtin {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (s *Store) SearchProducts(_ context.Context, q string, limit int) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q = strings.ToLower(q)
	out := []domain.Product{}
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Brand), q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) EnqueueJob(_ context.Context, productID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &domain.Job{ID: uuid.NewString(), ProductID: productID, Status: domain.JobQueued, QueuedAt: s.now()}
	s.jobs[j.ID] = j
	s.queue = append(s.queue, j.ID)
	return j.ID, nil
}

func (s *Store) ClaimNext(_ context.Context) (ports.ScoreJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) > 0 {
		id := s.queue[0]
		s.queue = s.queue[1:]
		j := s.jobs[id]
		if j == nil || j.Status != domain.JobQueued {
			continue
		}
		s.start(j)
		return ports.ScoreJob{ID: j.ID, ProductID: j.ProductID}, true, nil
	}
	return ports.ScoreJob{}, false, nil
}

func (s *Store) start(j *domain.Job) {
	now := s.now()
	j.Status = domain.JobRunning
	j.Attempts++
	j.StartedAt = &now
}

func (s *Store) finish(jobID string, status domain.JobStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	now := s.now()
	j.Status = status
	j.Error = reason
	j.FinishedAt = &now
	return nil
}

func (s *Store) MarkCompleted(_ context.Context, jobID string) error {
	return s.finish(jobID, domain.JobCompleted, "")
}

func (s *Store) MarkFailed(_ context.Context, jobID string, reason string) error {
	return s.finish(jobID, domain.JobFailed, reason)
}

// StartJobForProduct takes over the product's queued job if there is one,
// otherwise it creates a running job directly.
func (s *Store) StartJobForProduct(_ context.Context, productID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.queue {
		if j := s.jobs[id]; j != nil && j.ProductID == productID && j.Status == domain.JobQueued {
			s.start(j)
			return j.ID, nil
		}
	}
	j := &domain.Job{ID: uuid.NewString(), ProductID: productID, QueuedAt: s.now()}
	s.start(j)
	s.jobs[j.ID] = j
	return j.ID, nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return *j, nil
}
