package domain

import "github.com/shopspring/decimal"

// Cart is a user's basket. The store holds at most one Cart per UserName.
type Cart struct {
	UserName string     `json:"userName"`
	Items    []CartItem `json:"items"`
}

type CartItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Color       string          `json:"color,omitempty"`
	ImageFile   string          `json:"imageFile,omitempty"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// NewCart returns an empty basket for userName.
func NewCart(userName string) *Cart {
	return &Cart{UserName: userName, Items: []CartItem{}}
}

// TotalPrice sums UnitPrice × Quantity over all items. It is always derived, never stored.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Clone returns a deep copy so callers can mutate items without touching the original.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{UserName: c.UserName, Items: items}
}
