package basket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"shopbasket/internal/domain"
)

// Repository stores one serialized cart per user name.
type Repository interface {
	// Get returns nil, nil when the user has no stored basket.
	Get(ctx context.Context, userName string) (*domain.Cart, error)
	// Set overwrites the stored basket for cart.UserName.
	Set(ctx context.Context, cart domain.Cart) error
	// Remove deletes the basket; removing an absent basket is not an error.
	Remove(ctx context.Context, userName string) error
}

func encode(cart domain.Cart) ([]byte, error) {
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("encode basket %q: %w", cart.UserName, err)
	}
	return payload, nil
}

// decode treats a blank or null payload as a miss. Anything that fails to parse, or
// parses into a cart owned by another user, is corruption.
func decode(userName string, payload []byte) (*domain.Cart, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	var cart *domain.Cart
	if err := json.Unmarshal(payload, &cart); err != nil {
		return nil, fmt.Errorf("%w: key %q: %v", domain.ErrCorruptBasket, userName, err)
	}
	if cart == nil {
		return nil, nil
	}
	if cart.UserName != userName {
		return nil, fmt.Errorf("%w: key %q holds basket of %q", domain.ErrCorruptBasket, userName, cart.UserName)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}
