package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopbasket/internal/domain"
	discountrepo "shopbasket/internal/repository/discount"
)

// Service owns coupon rows and answers discount lookups by product name.
type Service struct {
	repo discountrepo.Repository
}

func New(repo discountrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Lookup resolves the discount for productName. A product without a coupon yields
// NoDiscount, not an error.
func (s *Service) Lookup(ctx context.Context, productName string) (domain.Discount, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return domain.Discount{}, fmt.Errorf("%w: product name required", domain.ErrInvalidInput)
	}
	coupon, err := s.repo.GetByProductName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NoDiscount(name), nil
		}
		return domain.Discount{}, err
	}
	return domain.DiscountFromCoupon(*coupon), nil
}

// Get returns the stored coupon or the "No Discount" placeholder.
func (s *Service) Get(ctx context.Context, productName string) (*domain.Coupon, error) {
	coupon, err := s.repo.GetByProductName(ctx, strings.TrimSpace(productName))
	if errors.Is(err, domain.ErrNotFound) {
		placeholder := domain.CouponPlaceholder()
		return &placeholder, nil
	}
	return coupon, err
}

func (s *Service) Create(ctx context.Context, c domain.Coupon) (*domain.Coupon, error) {
	if err := validateCoupon(&c); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, c domain.Coupon) (*domain.Coupon, error) {
	if c.ID <= 0 {
		return nil, fmt.Errorf("%w: coupon id required", domain.ErrInvalidInput)
	}
	if err := validateCoupon(&c); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, c)
}

// Delete reports whether a coupon existed for productName.
func (s *Service) Delete(ctx context.Context, productName string) (bool, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return false, fmt.Errorf("%w: product name required", domain.ErrInvalidInput)
	}
	return s.repo.Delete(ctx, name)
}

func validateCoupon(c *domain.Coupon) error {
	c.ProductName = strings.TrimSpace(c.ProductName)
	if c.ProductName == "" {
		return fmt.Errorf("%w: product name required", domain.ErrInvalidInput)
	}
	if c.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidInput)
	}
	return nil
}
