package discount

import (
	"context"

	"shopbasket/internal/domain"
)

type Repository interface {
	GetByProductName(ctx context.Context, productName string) (*domain.Coupon, error)
	Create(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error)
	Update(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error)
	Delete(ctx context.Context, productName string) (bool, error)
	// Upsert inserts or replaces the coupon for coupon.ProductName.
	Upsert(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error)
}
