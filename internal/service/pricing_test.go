package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/repository"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPriceOrder(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	products := map[int64]model.Product{
		1: {ID: 1, Name: "Dress", Price: dec("50.00"), InStock: true},
		2: {ID: 2, Name: "Scarf", Price: dec("40.00"), SalePrice: decimal.NewNullDecimal(dec("25.00")), InStock: true},
		3: {ID: 3, Name: "Coat", Price: dec("200.00"), InStock: false},
	}
	hundredLines := []model.OrderLine{{ProductID: 1, Quantity: 2}}

	coupon := func(typ model.DiscountType, d string, active bool, expires time.Time) *model.Coupon {
		return &model.Coupon{ID: 5, Code: "SALE", Discount: dec(d), DiscountType: typ, IsActive: active, ExpiresAt: expires}
	}
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name      string
		lines     []model.OrderLine
		coupon    *model.Coupon
		wantSub   string
		wantTotal string
		wantErr   error
	}{
		{name: "no coupon", lines: hundredLines, wantSub: "100", wantTotal: "100"},
		{name: "sale price used", lines: []model.OrderLine{{ProductID: 2, Quantity: 3}}, wantSub: "75", wantTotal: "75"},
		{name: "percentage 10", lines: hundredLines, coupon: coupon(model.DiscountPercentage, "10", true, future), wantSub: "100", wantTotal: "90"},
		{name: "fixed 20", lines: hundredLines, coupon: coupon(model.DiscountFixed, "20", true, future), wantSub: "100", wantTotal: "80"},
		{name: "fixed 150 clamps to zero", lines: hundredLines, coupon: coupon(model.DiscountFixed, "150", true, future), wantSub: "100", wantTotal: "0"},
		{name: "percentage 100", lines: hundredLines, coupon: coupon(model.DiscountPercentage, "100", true, future), wantSub: "100", wantTotal: "0"},
		{name: "expired coupon", lines: hundredLines, coupon: coupon(model.DiscountFixed, "20", true, now.Add(-time.Second)), wantErr: ErrInvalidCoupon},
		{name: "coupon expiring now", lines: hundredLines, coupon: coupon(model.DiscountFixed, "20", true, now), wantErr: ErrInvalidCoupon},
		{name: "inactive coupon", lines: hundredLines, coupon: coupon(model.DiscountFixed, "20", false, future), wantErr: ErrInvalidCoupon},
		{name: "out of stock", lines: []model.OrderLine{{ProductID: 1, Quantity: 1}, {ProductID: 3, Quantity: 1}}, wantErr: ErrOutOfStock},
		{name: "unknown product", lines: []model.OrderLine{{ProductID: 42, Quantity: 1}}, wantErr: repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := PriceOrder(tt.lines, products, tt.coupon, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, q)
				return
			}
			require.NoError(t, err)

			assert.True(t, q.Subtotal.Equal(dec(tt.wantSub)), "subtotal %s", q.Subtotal)
			assert.True(t, q.Total.Equal(dec(tt.wantTotal)), "total %s", q.Total)
			assert.True(t, q.Discount.Equal(q.Subtotal.Sub(q.Total)), "discount %s", q.Discount)
			assert.False(t, q.Total.IsNegative())
		})
	}
}

func TestPriceOrder_CapturesLineItems(t *testing.T) {
	products := map[int64]model.Product{
		2: {ID: 2, Name: "Scarf", Price: dec("40.00"), SalePrice: decimal.NewNullDecimal(dec("25.00")), InStock: true},
	}

	q, err := PriceOrder([]model.OrderLine{{ProductID: 2, Quantity: 2, Size: "M", Color: "Red"}}, products, nil, time.Now())
	require.NoError(t, err)
	require.Len(t, q.Items, 1)

	it := q.Items[0]
	assert.Equal(t, "Scarf", it.ProductName)
	assert.Equal(t, 2, it.Quantity)
	assert.True(t, it.Price.Equal(dec("25")))
	assert.Equal(t, "M", it.Size)
	assert.Equal(t, "Red", it.Color)
	assert.Nil(t, q.CouponID)
}

func TestPriceOrder_MinPurchaseNotEnforced(t *testing.T) {
	now := time.Now()
	products := map[int64]model.Product{1: {ID: 1, Price: dec("10"), InStock: true}}
	c := &model.Coupon{
		ID:           9,
		Discount:     dec("10"),
		DiscountType: model.DiscountPercentage,
		MinPurchase:  decimal.NewNullDecimal(dec("500")),
		IsActive:     true,
		ExpiresAt:    now.Add(time.Hour),
	}

	q, err := PriceOrder([]model.OrderLine{{ProductID: 1, Quantity: 1}}, products, c, now)
	require.NoError(t, err)
	assert.True(t, q.Total.Equal(dec("9")))
	require.NotNil(t, q.CouponID)
	assert.Equal(t, int64(9), *q.CouponID)
}
