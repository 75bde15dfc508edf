package product

import (
	"context"
	"errors"
	"fmt"
	"io"

	"shopbasket/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const productColumns = `id::text, name, category, COALESCE(summary, ''), COALESCE(description, ''), COALESCE(image_file, ''), price::text, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	if logger == nil {
		discard := logrus.New()
		discard.Out = io.Discard
		logger = discard
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
ORDER BY name ASC
`
	result, err := r.query(ctx, q)
	if err != nil {
		r.logger.WithError(err).Error("product repo: list failed")
		return nil, err
	}
	r.logger.WithField("count", len(result)).Debug("product repo: list")
	return result, nil
}

func (r *postgresRepo) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
WHERE lower(category) = lower($1)
ORDER BY name ASC
`
	result, err := r.query(ctx, q, category)
	if err != nil {
		r.logger.WithError(err).WithField("category", category).Error("product repo: list by category failed")
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
WHERE id = $1
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WithField("id", id).Debug("product repo: not found")
			return nil, domain.ErrNotFound
		}
		r.logger.WithError(err).WithField("id", id).Error("product repo: get failed")
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, product domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (id, name, category, summary, description, image_file, price)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7::numeric)
RETURNING ` + productColumns
	created, err := scanProduct(r.pool.QueryRow(ctx, q, product.ID, product.Name, product.Category, product.Summary, product.Description, product.ImageFile, product.Price.String()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).WithField("name", product.Name).Error("product repo: create failed")
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"id": created.ID, "name": created.Name}).Info("product repo: created")
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, product domain.Product) (*domain.Product, error) {
	q := `
UPDATE products
SET name = $2, category = $3, summary = NULLIF($4, ''), description = NULLIF($5, ''), image_file = NULLIF($6, ''), price = $7::numeric
WHERE id = $1
RETURNING ` + productColumns
	updated, err := scanProduct(r.pool.QueryRow(ctx, q, product.ID, product.Name, product.Category, product.Summary, product.Description, product.ImageFile, product.Price.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).WithField("id", product.ID).Error("product repo: update failed")
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.WithError(err).WithField("id", id).Error("product repo: delete failed")
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// Upsert inserts or refreshes a product keyed by its name.
func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (id, name, category, summary, description, image_file, price)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7::numeric)
ON CONFLICT (name) DO UPDATE SET
    category = EXCLUDED.category,
    summary = EXCLUDED.summary,
    description = EXCLUDED.description,
    image_file = EXCLUDED.image_file,
    price = EXCLUDED.price
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q, product.ID, product.Name, product.Category, product.Summary, product.Description, product.ImageFile, product.Price.String()))
	if err != nil {
		r.logger.WithError(err).WithField("name", product.Name).Error("product repo: upsert failed")
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for name=%s existing_id=%s import_id=%s", product.Name, res.ID, product.ID)
	}
	r.logger.WithFields(logrus.Fields{"id": res.ID, "name": res.Name}).Debug("product repo: upserted")
	return res, nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Summary, &p.Description, &p.ImageFile, &price, &p.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %s: parse price %q: %w", p.ID, price, err)
	}
	p.Price = parsed
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
