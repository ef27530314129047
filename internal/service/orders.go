package service

import (
	"context"
	"strings"

	"github.com/mmeshcher/fashion-store/internal/model"
)

// PlaceOrderInput содержит данные оформления заказа.
type PlaceOrderInput struct {
	Items           []model.OrderLine     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required,max=50"`
	CouponCode      string                `json:"couponCode" validate:"max=50"`
}

// PlaceOrder рассчитывает и сохраняет заказ пользователя, после чего корзина очищается.
// Письмо с подтверждением ставится в очередь; сбой очереди на заказ не влияет.
func (s *Service) PlaceOrder(ctx context.Context, actor model.Actor, in PlaceOrderInput) (*model.Order, error) {
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	in.CouponCode = strings.ToUpper(strings.TrimSpace(in.CouponCode))
	if err := validate(in); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(in.Items))
	for _, line := range in.Items {
		ids = append(ids, line.ProductID)
	}

	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Товары и наличие проверяются раньше купона.
	quote, err := priceLines(in.Items, products)
	if err != nil {
		return nil, err
	}

	if in.CouponCode != "" {
		coupon, err := s.repo.GetCouponByCode(ctx, in.CouponCode)
		if err != nil {
			return nil, err
		}
		if err := quote.applyCoupon(coupon, s.now()); err != nil {
			return nil, err
		}
	}

	order, err := s.repo.CreateOrder(ctx, model.Order{
		UserID:          actor.UserID,
		Status:          model.OrderStatusPending,
		Subtotal:        quote.Subtotal,
		Discount:        quote.Discount,
		Total:           quote.Total,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		CouponID:        quote.CouponID,
		Items:           quote.Items,
	})
	if err != nil {
		return nil, err
	}

	if actor.Email != "" {
		s.enqueueMail(ctx, orderConfirmationMail(actor.Email, order))
	}
	return order, nil
}

// ListMyOrders возвращает заказы текущего пользователя.
func (s *Service) ListMyOrders(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, actor.UserID)
}

// GetOrder возвращает заказ текущего пользователя. Чужой заказ не находится.
func (s *Service) GetOrder(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
	return s.repo.GetOrder(ctx, actor.UserID, id)
}

// ListAllOrders возвращает страницу всех заказов. Доступно только администратору.
func (s *Service) ListAllOrders(ctx context.Context, actor model.Actor, status string, page, limit int) ([]model.Order, model.Pagination, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, model.Pagination{}, err
	}

	f := model.OrderFilter{}
	if status != "" {
		st, ok := model.ParseOrderStatus(status)
		if !ok {
			return nil, model.Pagination{}, ErrInvalidStatus
		}
		f.Status = st
	}

	f.Page, f.Limit = normalizePage(page, limit, 10)
	orders, total, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	return orders, model.NewPagination(f.Page, f.Limit, total), nil
}

// UpdateOrderStatus меняет статус заказа. Допускается переход между любыми статусами из перечня.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor model.Actor, id int64, status string) (*model.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	st, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	return s.repo.UpdateOrderStatus(ctx, id, st)
}
