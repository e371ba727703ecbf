package ports

import (
	"context"

	"ecolabel/internal/domain"
)

// LCARepository appends LCA results. Records are immutable once created.
type LCARepository interface {
	CreateLCA(ctx context.Context, rec domain.LCARecord) (domain.LCARecord, error)
	GetLCA(ctx context.Context, id string) (domain.LCARecord, error)
}

// ScoreRepository appends eco-scores and answers history queries per product.
type ScoreRepository interface {
	CreateScore(ctx context.Context, rec domain.ScoreRecord) (domain.ScoreRecord, error)
	GetScore(ctx context.Context, id string) (domain.ScoreRecord, error)
	// ListScoresByProduct returns the product's scores, newest first.
	ListScoresByProduct(ctx context.Context, productID string) ([]domain.ScoreRecord, error)
	LatestScore(ctx context.Context, productID string) (exists bool, rec domain.ScoreRecord, err error)
}

// ProductRepository stores product summaries. CreateProduct upserts on GTIN
// when one is given: the submitted fields and status are replaced, the score
// summary of the existing product is kept.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) error
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	GetProductByGTIN(ctx context.Context, gtin string) (domain.Product, error)
	SearchProducts(ctx context.Context, q string, limit int) ([]domain.Product, error)
}

// Store is everything a storage adapter provides.
type Store interface {
	LCARepository
	ScoreRepository
	ProductRepository
	JobRepository
	Close() error
}
