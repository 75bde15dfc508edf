package domain

import "github.com/shopspring/decimal"

const (
	noDiscountName        = "No Discount"
	noDiscountDescription = "No Discount Desc"
)

// Coupon is a discount row owned by the discount service.
type Coupon struct {
	ID          int64           `json:"id"`
	ProductName string          `json:"productName"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Discount is the result of a discount lookup. Found is false when the product has
// no coupon; Amount is then zero.
type Discount struct {
	ProductName string          `json:"productName"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Found       bool            `json:"-"`
}

// NoDiscount is the lookup result for a product without a coupon.
func NoDiscount(productName string) Discount {
	return Discount{
		ProductName: productName,
		Amount:      decimal.Zero,
		Description: noDiscountDescription,
	}
}

// Reduction is the amount to subtract from the unit price.
func (d Discount) Reduction() decimal.Decimal {
	if !d.Found {
		return decimal.Zero
	}
	return d.Amount
}

func DiscountFromCoupon(c Coupon) Discount {
	return Discount{
		ProductName: c.ProductName,
		Amount:      c.Amount,
		Description: c.Description,
		Found:       true,
	}
}

// CouponPlaceholder mirrors what the discount admin API answers for an unknown product.
func CouponPlaceholder() Coupon {
	return Coupon{
		ProductName: noDiscountName,
		Description: noDiscountDescription,
		Amount:      decimal.Zero,
	}
}
