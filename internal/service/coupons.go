package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/fashion-store/internal/model"
)

// CouponInput содержит поля купона, задаваемые администратором.
type CouponInput struct {
	Code         string              `json:"code" validate:"required,max=50"`
	Discount     decimal.Decimal     `json:"discount"`
	DiscountType model.DiscountType  `json:"discountType" validate:"required,oneof=PERCENTAGE FIXED"`
	MinPurchase  decimal.NullDecimal `json:"minPurchase"`
	ExpiresAt    time.Time           `json:"expiresAt"`
	IsActive     *bool               `json:"isActive"`
}

func (in *CouponInput) normalize() error {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.DiscountType = model.DiscountType(strings.ToUpper(string(in.DiscountType)))
	if err := validate(in); err != nil {
		return err
	}
	if !in.Discount.IsPositive() {
		return invalid("discount must be greater than 0")
	}
	if in.DiscountType == model.DiscountPercentage && in.Discount.GreaterThan(hundred) {
		return invalid("percentage discount must not exceed 100")
	}
	if in.MinPurchase.Valid && in.MinPurchase.Decimal.IsNegative() {
		return invalid("minPurchase must not be negative")
	}
	if in.ExpiresAt.IsZero() {
		return invalid("expiresAt is required")
	}
	return nil
}

func (in CouponInput) coupon() model.Coupon {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return model.Coupon{
		Code:         in.Code,
		Discount:     in.Discount,
		DiscountType: in.DiscountType,
		MinPurchase:  in.MinPurchase,
		ExpiresAt:    in.ExpiresAt,
		IsActive:     active,
	}
}

var hundred = decimal.NewFromInt(100)

// ListActiveCoupons возвращает действующие купоны.
func (s *Service) ListActiveCoupons(ctx context.Context) ([]model.Coupon, error) {
	return s.repo.ListActiveCoupons(ctx, s.now())
}

// ValidateCoupon находит купон по коду и проверяет, что он действует.
func (s *Service) ValidateCoupon(ctx context.Context, code string) (*model.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c, err := s.repo.GetCouponByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.IsValid(s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCoupon, c.Code)
	}
	return c, nil
}

// ListCoupons возвращает все купоны. Доступно только администратору.
func (s *Service) ListCoupons(ctx context.Context, actor model.Actor) ([]model.Coupon, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.ListCoupons(ctx)
}

// CreateCoupon создаёт купон. Код хранится в верхнем регистре.
func (s *Service) CreateCoupon(ctx context.Context, actor model.Actor, in CouponInput) (*model.Coupon, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	return s.repo.CreateCoupon(ctx, in.coupon())
}

// UpdateCoupon перезаписывает купон.
func (s *Service) UpdateCoupon(ctx context.Context, actor model.Actor, id int64, in CouponInput) (*model.Coupon, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	c := in.coupon()
	c.ID = id
	return s.repo.UpdateCoupon(ctx, c)
}

// DeleteCoupon удаляет купон.
func (s *Service) DeleteCoupon(ctx context.Context, actor model.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.repo.DeleteCoupon(ctx, id)
}
