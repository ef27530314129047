package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/repository"
)

// Quote содержит результат расчёта заказа до сохранения.
type Quote struct {
	Items    []model.OrderItem
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	CouponID *int64
}

// PriceOrder рассчитывает позиции и суммы заказа. Цена позиции берётся по действующей цене товара
// на момент вызова. Купон, если передан, должен быть активен и не просрочен на момент now.
// Минимальная сумма заказа купона не проверяется.
func PriceOrder(lines []model.OrderLine, products map[int64]model.Product, coupon *model.Coupon, now time.Time) (*Quote, error) {
	q, err := priceLines(lines, products)
	if err != nil {
		return nil, err
	}
	if err := q.applyCoupon(coupon, now); err != nil {
		return nil, err
	}
	return q, nil
}

// priceLines проверяет наличие товаров и считает позиции без купона.
func priceLines(lines []model.OrderLine, products map[int64]model.Product) (*Quote, error) {
	q := &Quote{
		Items:    make([]model.OrderItem, 0, len(lines)),
		Subtotal: decimal.Zero,
	}

	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", repository.ErrNotFound, line.ProductID)
		}
		if !p.InStock {
			return nil, fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
		}

		unit := p.UnitPrice()
		q.Subtotal = q.Subtotal.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
		q.Items = append(q.Items, model.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			Price:       unit,
			Size:        line.Size,
			Color:       line.Color,
		})
	}

	q.Subtotal = q.Subtotal.Round(2)
	q.Total = q.Subtotal
	q.Discount = decimal.Zero
	return q, nil
}

func (q *Quote) applyCoupon(coupon *model.Coupon, now time.Time) error {
	if coupon == nil {
		return nil
	}
	if !coupon.IsValid(now) {
		return fmt.Errorf("%w: %s", ErrInvalidCoupon, coupon.Code)
	}

	q.Total = coupon.Apply(q.Subtotal)
	q.Discount = q.Subtotal.Sub(q.Total)
	id := coupon.ID
	q.CouponID = &id
	return nil
}
