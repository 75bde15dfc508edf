package basket

import (
	"context"
	"fmt"
	"strings"

	"shopbasket/internal/domain"
	basketrepo "shopbasket/internal/repository/basket"
)

type cartUpdater interface {
	Update(ctx context.Context, cart domain.Cart) (*domain.Cart, error)
}

// Service is the entry point for basket reads, updates and deletes.
type Service struct {
	store   basketStore
	updater cartUpdater
}

func New(store basketrepo.Repository, updater cartUpdater) *Service {
	return &Service{store: store, updater: updater}
}

// Get never reports a missing basket: an unknown user gets an empty, unsaved cart.
func (s *Service) Get(ctx context.Context, userName string) (*domain.Cart, error) {
	if err := validateUserName(userName); err != nil {
		return nil, err
	}
	cart, err := s.store.Get(ctx, userName)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return domain.NewCart(userName), nil
	}
	return cart, nil
}

func (s *Service) Update(ctx context.Context, cart domain.Cart) (*domain.Cart, error) {
	if err := validateUserName(cart.UserName); err != nil {
		return nil, err
	}
	for i, item := range cart.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			return nil, fmt.Errorf("%w: item %d: product name required", domain.ErrInvalidInput, i)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d (%s): quantity must be at least 1", domain.ErrInvalidInput, i, item.ProductName)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item %d (%s): price must not be negative", domain.ErrInvalidInput, i, item.ProductName)
		}
	}
	return s.updater.Update(ctx, cart)
}

// Delete is idempotent.
func (s *Service) Delete(ctx context.Context, userName string) error {
	if err := validateUserName(userName); err != nil {
		return err
	}
	return s.store.Remove(ctx, userName)
}

func validateUserName(userName string) error {
	if strings.TrimSpace(userName) == "" {
		return fmt.Errorf("%w: user name required", domain.ErrInvalidInput)
	}
	return nil
}
