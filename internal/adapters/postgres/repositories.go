package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"ecolabel/internal/domain"
)

// LCARepository

func (db *DB) CreateLCA(ctx context.Context, rec domain.LCARecord) (domain.LCARecord, error) {
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO lca_results (product_id, co2, water, energy, breakdown)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id::text, created_at
    `, rec.ProductID, rec.CO2, rec.Water, rec.Energy, rec.Breakdown).Scan(&rec.ID, &rec.CreatedAt)
	return rec, err
}

func (db *DB) GetLCA(ctx context.Context, id string) (domain.LCARecord, error) {
	if err := checkID(id); err != nil {
		return domain.LCARecord{}, err
	}
	var rec domain.LCARecord
	err := db.Pool.QueryRow(ctx, `
        SELECT id::text, product_id, co2, water, energy, breakdown, created_at
        FROM lca_results WHERE id = $1
    `, id).Scan(&rec.ID, &rec.ProductID, &rec.CO2, &rec.Water, &rec.Energy, &rec.Breakdown, &rec.CreatedAt)
	return rec, notFound(err)
}

// ScoreRepository

const scoreColumns = `id::text, product_id, lca_id, score_numeric, score_letter, confidence, explanation, breakdown, created_at`

func scanScore(row pgx.Row) (domain.ScoreRecord, error) {
	var r domain.ScoreRecord
	err := row.Scan(&r.ID, &r.ProductID, &r.LCAID, &r.Numeric, &r.Letter, &r.Confidence,
		&r.Explanation, &r.Breakdown, &r.CreatedAt)
	return r, err
}

func (db *DB) CreateScore(ctx context.Context, rec domain.ScoreRecord) (domain.ScoreRecord, error) {
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO eco_scores (product_id, lca_id, score_numeric, score_letter, confidence, explanation, breakdown)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id::text, created_at
    `, rec.ProductID, rec.LCAID, rec.Numeric, rec.Letter, rec.Confidence, rec.Explanation, rec.Breakdown,
	).Scan(&rec.ID, &rec.CreatedAt)
	return rec, err
}

func (db *DB) GetScore(ctx context.Context, id string) (domain.ScoreRecord, error) {
	if err := checkID(id); err != nil {
		return domain.ScoreRecord{}, err
	}
	rec, err := scanScore(db.Pool.QueryRow(ctx, `SELECT `+scoreColumns+` FROM eco_scores WHERE id = $1`, id))
	return rec, notFound(err)
}

func (db *DB) ListScoresByProduct(ctx context.Context, productID string) ([]domain.ScoreRecord, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT `+scoreColumns+` FROM eco_scores
        WHERE product_id = $1
        ORDER BY created_at DESC, id
    `, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.ScoreRecord{}
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (db *DB) LatestScore(ctx context.Context, productID string) (bool, domain.ScoreRecord, error) {
	rec, err := scanScore(db.Pool.QueryRow(ctx, `
        SELECT `+scoreColumns+` FROM eco_scores
        WHERE product_id = $1
        ORDER BY created_at DESC, id
        LIMIT 1
    `, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return false, rec, nil
	}
	if err != nil {
		return false, rec, err
	}
	return true, rec, nil
}

// ProductRepository

const productColumns = `id::text, title, brand, COALESCE(gtin, ''), ingredients_text, packaging, weight_kg, origin,
    status, score_id, score_letter, score_numeric, confidence, co2, water, energy,
    ingredients, origins, labels, created_at, updated_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Title, &p.Brand, &p.GTIN, &p.IngredientsText, &p.Packaging, &p.WeightKg, &p.Origin,
		&p.Status, &p.ScoreID, &p.ScoreLetter, &p.ScoreNumeric, &p.Confidence, &p.CO2, &p.Water, &p.Energy,
		&p.Ingredients, &p.Origins, &p.Labels, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CreateProduct inserts p. A product already carrying the same GTIN gets the
// submitted fields and status; its last score summary is kept.
func (db *DB) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	return scanProduct(db.Pool.QueryRow(ctx, `
        INSERT INTO products (title, brand, gtin, ingredients_text, packaging, weight_kg, origin, status,
            score_id, score_letter, score_numeric, confidence, co2, water, energy, ingredients, origins, labels)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        ON CONFLICT (gtin) DO UPDATE SET
            title = EXCLUDED.title, brand = EXCLUDED.brand, ingredients_text = EXCLUDED.ingredients_text,
            packaging = EXCLUDED.packaging, weight_kg = EXCLUDED.weight_kg, origin = EXCLUDED.origin,
            status = EXCLUDED.status, updated_at = now()
        RETURNING `+productColumns,
		p.Title, p.Brand, p.GTIN, p.IngredientsText, p.Packaging, p.WeightKg, p.Origin, p.Status,
		p.ScoreID, p.ScoreLetter, p.ScoreNumeric, p.Confidence, p.CO2, p.Water, p.Energy,
		nonNil(p.Ingredients), nonNil(p.Origins), nonNil(p.Labels)))
}

func (db *DB) UpdateProduct(ctx context.Context, p domain.Product) error {
	if err := checkID(p.ID); err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx, `
        UPDATE products SET
            title = $2, brand = $3, gtin = NULLIF($4, ''), ingredients_text = $5, packaging = $6, weight_kg = $7,
            origin = $8, status = $9, score_id = $10, score_letter = $11, score_numeric = $12, confidence = $13,
            co2 = $14, water = $15, energy = $16, ingredients = $17, origins = $18, labels = $19,
            updated_at = now()
        WHERE id = $1
    `, p.ID, p.Title, p.Brand, p.GTIN, p.IngredientsText, p.Packaging, p.WeightKg, p.Origin, p.Status,
		p.ScoreID, p.ScoreLetter, p.ScoreNumeric, p.Confidence, p.CO2, p.Water, p.Energy,
		nonNil(p.Ingredients), nonNil(p.Origins), nonNil(p.Labels))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if err := checkID(id); err != nil {
		return domain.Product{}, err
	}
	p, err := scanProduct(db.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	return p, notFound(err)
}

func (db *DB) GetProductByGTIN(ctx context.Context, gtin string) (domain.Product, error) {
	p, err := scanProduct(db.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE gtin = $1`, gtin))
	return p, notFound(err)
}

func (db *DB) SearchProducts(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	pattern := "%" + escapeLike(q) + "%"
	rows, err := db.Pool.Query(ctx, `
        SELECT `+productColumns+` FROM products
        WHERE title ILIKE $1 OR brand ILIKE $1
        ORDER BY title, id
        LIMIT $2
    `, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
