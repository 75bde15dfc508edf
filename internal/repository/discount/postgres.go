package discount

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

func (r *postgresRepo) GetByProductName(ctx context.Context, productName string) (*domain.Coupon, error) {
	const q = `
SELECT id, product_name, description, amount::text
FROM coupons
WHERE product_name = $1
`
	coupon, err := scanCoupon(r.pool.QueryRow(ctx, q, productName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WithField("product", productName).Debug("coupon repo: not found")
			return nil, domain.ErrNotFound
		}
		r.logger.WithError(err).WithField("product", productName).Error("coupon repo: get failed")
		return nil, err
	}
	return coupon, nil
}

func (r *postgresRepo) Create(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error) {
	const q = `
INSERT INTO coupons (product_name, description, amount)
VALUES ($1, $2, $3::numeric)
RETURNING id, product_name, description, amount::text
`
	created, err := scanCoupon(r.pool.QueryRow(ctx, q, coupon.ProductName, coupon.Description, coupon.Amount.String()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).WithField("product", coupon.ProductName).Error("coupon repo: create failed")
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"product": created.ProductName, "id": created.ID}).Info("coupon repo: created")
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error) {
	const q = `
UPDATE coupons
SET product_name = $1, description = $2, amount = $3::numeric
WHERE id = $4
RETURNING id, product_name, description, amount::text
`
	updated, err := scanCoupon(r.pool.QueryRow(ctx, q, coupon.ProductName, coupon.Description, coupon.Amount.String(), coupon.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).WithField("id", coupon.ID).Error("coupon repo: update failed")
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, productName string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE product_name = $1`, productName)
	if err != nil {
		r.logger.WithError(err).WithField("product", productName).Error("coupon repo: delete failed")
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error) {
	const q = `
INSERT INTO coupons (product_name, description, amount)
VALUES ($1, $2, $3::numeric)
ON CONFLICT (product_name) DO UPDATE
SET description = EXCLUDED.description,
    amount = EXCLUDED.amount
RETURNING id, product_name, description, amount::text
`
	saved, err := scanCoupon(r.pool.QueryRow(ctx, q, coupon.ProductName, coupon.Description, coupon.Amount.String()))
	if err != nil {
		r.logger.WithError(err).WithField("product", coupon.ProductName).Error("coupon repo: upsert failed")
		return nil, err
	}
	return saved, nil
}

func scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	var (
		c      domain.Coupon
		amount string
	)
	if err := row.Scan(&c.ID, &c.ProductName, &c.Description, &amount); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("coupon %d: parse amount %q: %w", c.ID, amount, err)
	}
	c.Amount = parsed
	return &c, nil
}
