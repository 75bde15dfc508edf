package seed

import (
	"context"
	"fmt"

	"shopbasket/internal/domain"
	discountrepo "shopbasket/internal/repository/discount"
	productrepo "shopbasket/internal/repository/product"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Products is the demo catalog.
func Products() []domain.Product {
	return []domain.Product{
		{Name: "Iphone X", Category: "Smart Phone", Summary: "Flagship phone", Description: "Edge-to-edge display, face unlock.", ImageFile: "product-1.png", Price: decimal.RequireFromString("950.00")},
		{Name: "Samsung 10", Category: "Smart Phone", Summary: "Android flagship", Description: "Triple camera and wireless charging.", ImageFile: "product-2.png", Price: decimal.RequireFromString("840.00")},
		{Name: "Huawei Plus", Category: "White Appliances", Summary: "Large screen phone", Description: "Long battery life.", ImageFile: "product-3.png", Price: decimal.RequireFromString("650.00")},
		{Name: "Xiaomi Mi 9", Category: "White Appliances", Summary: "Budget flagship", Description: "Fast charging, slim body.", ImageFile: "product-4.png", Price: decimal.RequireFromString("470.00")},
		{Name: "HTC U11+ Plus", Category: "Smart Phone", Summary: "Squeezable edges", Description: "Water resistant body.", ImageFile: "product-5.png", Price: decimal.RequireFromString("380.00")},
		{Name: "LG G7 ThinQ", Category: "Home Kitchen", Summary: "AI camera", Description: "Boombox speaker.", ImageFile: "product-6.png", Price: decimal.RequireFromString("240.00")},
	}
}

// Coupons is the demo discount table.
func Coupons() []domain.Coupon {
	return []domain.Coupon{
		{ProductName: "Iphone X", Description: "Iphone Discount", Amount: decimal.NewFromInt(50)},
		{ProductName: "Samsung 10", Description: "Samsung Discount", Amount: decimal.NewFromInt(100)},
	}
}

// Apply inserts demo products and coupons. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger logrus.FieldLogger) error {
	products := productrepo.NewPostgres(pool, logger)
	for _, p := range Products() {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	discounts := discountrepo.NewPostgres(pool, logger)
	for _, c := range Coupons() {
		if _, err := discounts.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", c.ProductName, err)
		}
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"products": len(Products()),
			"coupons":  len(Coupons()),
		}).Info("seed applied")
	}
	return nil
}
