package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType описывает способ расчёта скидки по купону.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

var hundred = decimal.NewFromInt(100)

// Coupon описывает промокод на скидку.
type Coupon struct {
	ID           int64               `json:"id"`
	Code         string              `json:"code"`
	Discount     decimal.Decimal     `json:"discount"`
	DiscountType DiscountType        `json:"discountType"`
	MinPurchase  decimal.NullDecimal `json:"minPurchase"`
	ExpiresAt    time.Time           `json:"expiresAt"`
	IsActive     bool                `json:"isActive"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// IsValid сообщает, действует ли купон в момент now.
func (c Coupon) IsValid(now time.Time) bool {
	return c.IsActive && c.ExpiresAt.After(now)
}

// Apply применяет скидку купона к сумме заказа. Результат не бывает отрицательным.
func (c Coupon) Apply(subtotal decimal.Decimal) decimal.Decimal {
	var total decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		total = subtotal.Mul(decimal.NewFromInt(1).Sub(c.Discount.Div(hundred)))
	case DiscountFixed:
		total = subtotal.Sub(c.Discount)
	default:
		total = subtotal
	}

	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}
