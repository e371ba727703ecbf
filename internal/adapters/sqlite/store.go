// Package sqlite is a single-file Store for local runs and small deployments.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ecolabel/internal/domain"
	"ecolabel/internal/ports"
)

type productRow struct {
	ID              string  `gorm:"primaryKey;size:36"`
	Title           string  `gorm:"not null"`
	Brand           string
	GTIN            *string `gorm:"uniqueIndex;size:14"`
	IngredientsText string
	Packaging       string
	WeightKg        float64
	Origin          string
	Status          string `gorm:"index;size:16"`
	ScoreID         string
	ScoreLetter     string `gorm:"size:1"`
	ScoreNumeric    float64
	Confidence      float64
	CO2             float64
	Water           float64
	Energy          float64
	Ingredients     []string `gorm:"serializer:json"`
	Origins         []string `gorm:"serializer:json"`
	Labels          []string `gorm:"serializer:json"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (productRow) TableName() string { return "products" }

type lcaRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	ProductID string `gorm:"index"`
	CO2       float64
	Water     float64
	Energy    float64
	Breakdown domain.Breakdown `gorm:"serializer:json"`
	CreatedAt time.Time
}

func (lcaRow) TableName() string { return "lca_results" }

type scoreRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	ProductID   string `gorm:"index:idx_scores_product_created,priority:1"`
	LCAID       string
	Numeric     float64
	Letter      string `gorm:"size:1"`
	Confidence  float64
	Explanation string
	Breakdown   domain.ScoreBreakdown `gorm:"serializer:json"`
	CreatedAt   time.Time             `gorm:"index:idx_scores_product_created,priority:2"`
}

func (scoreRow) TableName() string { return "eco_scores" }

type jobRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	ProductID  string `gorm:"index"`
	Status     string `gorm:"index;size:16"`
	Attempts   int
	Error      string
	QueuedAt   time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

func (jobRow) TableName() string { return "score_jobs" }

type Store struct {
	DB *gorm.DB
}

var _ ports.Store = (*Store)(nil)

// Open opens (creating if needed) the database file at path and migrates
// the schema.
func Open(path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one writer at a time keeps SQLite from reporting "database is locked"
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&productRow{}, &lcaRow{}, &scoreRow{}, &jobRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func now() time.Time { return time.Now().UTC() }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// LCARepository

func (s *Store) CreateLCA(ctx context.Context, rec domain.LCARecord) (domain.LCARecord, error) {
	row := lcaRow{
		ID: uuid.NewString(), ProductID: rec.ProductID,
		CO2: rec.CO2, Water: rec.Water, Energy: rec.Energy, Breakdown: rec.Breakdown,
		CreatedAt: now(),
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.LCARecord{}, err
	}
	rec.ID, rec.CreatedAt = row.ID, row.CreatedAt
	return rec, nil
}

func (s *Store) GetLCA(ctx context.Context, id string) (domain.LCARecord, error) {
	var row lcaRow
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return domain.LCARecord{}, notFound(err)
	}
	return domain.LCARecord{
		ID: row.ID, ProductID: row.ProductID, CreatedAt: row.CreatedAt,
		LCAResult: domain.LCAResult{CO2: row.CO2, Water: row.Water, Energy: row.Energy, Breakdown: row.Breakdown},
	}, nil
}

// ScoreRepository

func (r scoreRow) record() domain.ScoreRecord {
	return domain.ScoreRecord{
		ID: r.ID, ProductID: r.ProductID, LCAID: r.LCAID, CreatedAt: r.CreatedAt,
		EcoScore: domain.EcoScore{
			Numeric: r.Numeric, Letter: r.Letter, Confidence: r.Confidence,
			Explanation: r.Explanation, Breakdown: r.Breakdown,
		},
	}
}

func (s *Store) CreateScore(ctx context.Context, rec domain.ScoreRecord) (domain.ScoreRecord, error) {
	row := scoreRow{
		ID: uuid.NewString(), ProductID: rec.ProductID, LCAID: rec.LCAID,
		Numeric: rec.Numeric, Letter: rec.Letter, Confidence: rec.Confidence,
		Explanation: rec.Explanation, Breakdown: rec.Breakdown, CreatedAt: now(),
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.ScoreRecord{}, err
	}
	return row.record(), nil
}

func (s *Store) GetScore(ctx context.Context, id string) (domain.ScoreRecord, error) {
	var row scoreRow
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return domain.ScoreRecord{}, notFound(err)
	}
	return row.record(), nil
}

// rowid breaks ties between scores stored within the same clock tick.
const newestFirst = "created_at DESC, rowid DESC"

func (s *Store) ListScoresByProduct(ctx context.Context, productID string) ([]domain.ScoreRecord, error) {
	var rows []scoreRow
	if err := s.DB.WithContext(ctx).Where("product_id = ?", productID).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ScoreRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

func (s *Store) LatestScore(ctx context.Context, productID string) (bool, domain.ScoreRecord, error) {
	var rows []scoreRow
	if err := s.DB.WithContext(ctx).Where("product_id = ?", productID).Order(newestFirst).Limit(1).Find(&rows).Error; err != nil {
		return false, domain.ScoreRecord{}, err
	}
	if len(rows) == 0 {
		return false, domain.ScoreRecord{}, nil
	}
	return true, rows[0].record(), nil
}

// ProductRepository

func toProductRow(p domain.Product) productRow {
	var gtin *string
	if p.GTIN != "" {
		g := p.GTIN
		gtin = &g
	}
	return productRow{
		ID: p.ID, Title: p.Title, Brand: p.Brand, GTIN: gtin, IngredientsText: p.IngredientsText,
		Packaging: p.Packaging, WeightKg: p.WeightKg, Origin: p.Origin, Status: string(p.Status),
		ScoreID: p.ScoreID, ScoreLetter: p.ScoreLetter, ScoreNumeric: p.ScoreNumeric, Confidence: p.Confidence,
		CO2: p.CO2, Water: p.Water, Energy: p.Energy,
		Ingredients: p.Ingredients, Origins: p.Origins, Labels: p.Labels,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (r productRow) product() domain.Product {
	p := domain.Product{
		ID: r.ID, Title: r.Title, Brand: r.Brand, IngredientsText: r.IngredientsText,
		Packaging: r.Packaging, WeightKg: r.WeightKg, Origin: r.Origin, Status: domain.ProductStatus(r.Status),
		ScoreID: r.ScoreID, ScoreLetter: r.ScoreLetter, ScoreNumeric: r.ScoreNumeric, Confidence: r.Confidence,
		CO2: r.CO2, Water: r.Water, Energy: r.Energy,
		Ingredients: r.Ingredients, Origins: r.Origins, Labels: r.Labels,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if r.GTIN != nil {
		p.GTIN = *r.GTIN
	}
	return p
}

// CreateProduct inserts p. A product already carrying the same GTIN gets the
// submitted fields and status; its last score summary is kept.
func (s *Store) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	var out productRow
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toProductRow(p)
		row.UpdatedAt = now()
		if row.GTIN != nil {
			var existing productRow
			err := tx.First(&existing, "gtin = ?", *row.GTIN).Error
			switch {
			case err == nil:
				existing.Title, existing.Brand = row.Title, row.Brand
				existing.IngredientsText, existing.Packaging = row.IngredientsText, row.Packaging
				existing.WeightKg, existing.Origin, existing.Status = row.WeightKg, row.Origin, row.Status
				existing.UpdatedAt = row.UpdatedAt
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				out = existing
				return nil
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		row.ID = uuid.NewString()
		row.CreatedAt = row.UpdatedAt
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return out.product(), nil
}

func (s *Store) UpdateProduct(ctx context.Context, p domain.Product) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing productRow
		if err := tx.Select("id", "created_at").First(&existing, "id = ?", p.ID).Error; err != nil {
			return notFound(err)
		}
		row := toProductRow(p)
		row.CreatedAt = existing.CreatedAt
		row.UpdatedAt = now()
		return tx.Save(&row).Error
	})
}

func (s *Store) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return domain.Product{}, notFound(err)
	}
	return row.product(), nil
}

func (s *Store) GetProductByGTIN(ctx context.Context, gtin string) (domain.Product, error) {
	var row productRow
	if err := s.DB.WithContext(ctx).First(&row, "gtin = ?", gtin).Error; err != nil {
		return domain.Product{}, notFound(err)
	}
	return row.product(), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) SearchProducts(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	pattern := "%" + strings.ToLower(likeEscaper.Replace(q)) + "%"
	var rows []productRow
	err := s.DB.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("title, id").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.product())
	}
	return out, nil
}
