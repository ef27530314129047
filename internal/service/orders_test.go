package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/queue"
	"github.com/mmeshcher/fashion-store/internal/repository"
)

func validOrderInput() PlaceOrderInput {
	return PlaceOrderInput{
		Items: []model.OrderLine{{ProductID: 1, Quantity: 2}},
		ShippingAddress: model.ShippingAddress{
			FullName:   "Anna Ivanova",
			Phone:      "+7 900 000-00-00",
			Street:     "Tverskaya 1",
			City:       "Moscow",
			PostalCode: "125009",
			Country:    "RU",
		},
		PaymentMethod: "card",
	}
}

func orderRepo() *stubRepo {
	return &stubRepo{
		products: map[int64]model.Product{
			1: {ID: 1, Name: "Dress", Price: dec("50"), InStock: true},
			2: {ID: 2, Name: "Coat", Price: dec("200"), InStock: false},
		},
		coupons: map[string]model.Coupon{
			"SAVE10": {ID: 3, Code: "SAVE10", Discount: dec("10"), DiscountType: model.DiscountPercentage,
				IsActive: true, ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
			"OLD": {ID: 4, Code: "OLD", Discount: dec("10"), DiscountType: model.DiscountFixed,
				IsActive: true, ExpiresAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		cart: []model.CartItem{{ID: 1, ProductID: 1, Quantity: 2}},
	}
}

func TestPlaceOrder(t *testing.T) {
	repo := orderRepo()
	mail := queue.NewMemoryQueue(4)
	svc := newTestService(repo, mail)

	in := validOrderInput()
	in.CouponCode = " save10 "

	order, err := svc.PlaceOrder(context.Background(), customer, in)
	require.NoError(t, err)

	assert.Equal(t, int64(100), order.ID)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, customer.UserID, order.UserID)
	assert.True(t, order.Subtotal.Equal(dec("100")))
	assert.True(t, order.Total.Equal(dec("90")))
	assert.True(t, order.Discount.Equal(dec("10")))
	require.NotNil(t, order.CouponID)
	assert.Equal(t, int64(3), *order.CouponID)
	assert.Equal(t, "Moscow", order.ShippingAddress.City)
	assert.Empty(t, repo.cart)

	msg, err := mail.Dequeue(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, customer.Email, msg.To)
	assert.Contains(t, msg.Subject, "#100")
}

func TestPlaceOrder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *PlaceOrderInput)
		repoErr error
		wantErr error
	}{
		{name: "out of stock", mutate: func(in *PlaceOrderInput) {
			in.Items = append(in.Items, model.OrderLine{ProductID: 2, Quantity: 1})
		}, wantErr: ErrOutOfStock},
		{name: "unknown product", mutate: func(in *PlaceOrderInput) {
			in.Items = []model.OrderLine{{ProductID: 99, Quantity: 1}}
		}, wantErr: repository.ErrNotFound},
		{name: "unknown coupon", mutate: func(in *PlaceOrderInput) { in.CouponCode = "NOPE" }, wantErr: repository.ErrNotFound},
		{name: "out of stock with unknown coupon", mutate: func(in *PlaceOrderInput) {
			in.Items = []model.OrderLine{{ProductID: 2, Quantity: 1}}
			in.CouponCode = "NOPE"
		}, wantErr: ErrOutOfStock},
		{name: "expired coupon", mutate: func(in *PlaceOrderInput) { in.CouponCode = "OLD" }, wantErr: ErrInvalidCoupon},
		{name: "persistence failure", mutate: func(*PlaceOrderInput) {}, repoErr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := orderRepo()
			repo.createOrdEr = tt.repoErr
			mail := queue.NewMemoryQueue(4)
			svc := newTestService(repo, mail)

			in := validOrderInput()
			tt.mutate(&in)

			_, err := svc.PlaceOrder(context.Background(), customer, in)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, repo.createdOrd)
			}

			assert.Len(t, repo.cart, 1, "cart must stay unchanged")

			msg, err := mail.Dequeue(context.Background(), 10*time.Millisecond)
			require.NoError(t, err)
			assert.Nil(t, msg, "no confirmation mail on failure")
		})
	}
}

func TestPlaceOrder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *PlaceOrderInput)
	}{
		{name: "no items", mutate: func(in *PlaceOrderInput) { in.Items = nil }},
		{name: "zero quantity", mutate: func(in *PlaceOrderInput) { in.Items[0].Quantity = 0 }},
		{name: "missing city", mutate: func(in *PlaceOrderInput) { in.ShippingAddress.City = "" }},
		{name: "no payment method", mutate: func(in *PlaceOrderInput) { in.PaymentMethod = "  " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(orderRepo(), nil)
			in := validOrderInput()
			tt.mutate(&in)

			_, err := svc.PlaceOrder(context.Background(), customer, in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestPlaceOrder_QueueFailureDoesNotFailOrder(t *testing.T) {
	mail := queue.NewMemoryQueue(1)
	require.NoError(t, mail.Close())

	svc := newTestService(orderRepo(), mail)

	order, err := svc.PlaceOrder(context.Background(), customer, validOrderInput())
	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestUpdateOrderStatus(t *testing.T) {
	tests := []struct {
		status  string
		want    model.OrderStatus
		wantErr error
	}{
		{status: "SHIPPED", want: model.OrderStatusShipped},
		{status: "cancelled", want: model.OrderStatusCancelled},
		{status: "PENDING", want: model.OrderStatusPending},
		{status: "LOST", wantErr: ErrInvalidStatus},
		{status: "", wantErr: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			repo := &stubRepo{}
			svc := newTestService(repo, nil)

			o, err := svc.UpdateOrderStatus(context.Background(), admin, 5, tt.status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.statusSet)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, o.Status)
		})
	}
}

func TestListAllOrders(t *testing.T) {
	repo := &stubRepo{ordersPage: []model.Order{{ID: 1}, {ID: 2}}}
	svc := newTestService(repo, nil)

	orders, p, err := svc.ListAllOrders(context.Background(), admin, "processing", 0, 0)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, model.OrderStatusProcessing, repo.orderFilter.Status)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 1, p.Pages)

	_, _, err = svc.ListAllOrders(context.Background(), admin, "weird", 1, 10)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestValidateCoupon(t *testing.T) {
	svc := newTestService(orderRepo(), nil)
	ctx := context.Background()

	c, err := svc.ValidateCoupon(ctx, "save10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)

	_, err = svc.ValidateCoupon(ctx, "OLD")
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	_, err = svc.ValidateCoupon(ctx, "MISSING")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	active, err := svc.ListActiveCoupons(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "SAVE10", active[0].Code)
}

func TestCreateCoupon_Validation(t *testing.T) {
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   CouponInput
	}{
		{name: "zero discount", in: CouponInput{Code: "A", Discount: dec("0"), DiscountType: model.DiscountFixed, ExpiresAt: future}},
		{name: "percentage over 100", in: CouponInput{Code: "A", Discount: dec("101"), DiscountType: model.DiscountPercentage, ExpiresAt: future}},
		{name: "unknown type", in: CouponInput{Code: "A", Discount: dec("5"), DiscountType: "BOGO", ExpiresAt: future}},
		{name: "no expiry", in: CouponInput{Code: "A", Discount: dec("5"), DiscountType: model.DiscountFixed}},
		{name: "no code", in: CouponInput{Discount: dec("5"), DiscountType: model.DiscountFixed, ExpiresAt: future}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&stubRepo{}, nil)
			_, err := svc.CreateCoupon(context.Background(), admin, tt.in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}
