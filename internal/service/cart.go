package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/fashion-store/internal/model"
)

// CartQuantityInput содержит новое количество позиции корзины.
type CartQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// WishlistInput содержит товар для добавления в избранное.
type WishlistInput struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

func cartFromItems(items []model.CartItem) *model.Cart {
	subtotal := decimal.Zero
	for i := range items {
		items[i].LineTotal = items[i].Product.UnitPrice().Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		subtotal = subtotal.Add(items[i].LineTotal)
	}
	return &model.Cart{Items: items, Subtotal: subtotal.Round(2)}
}

// GetCart возвращает корзину текущего пользователя с суммами по позициям.
func (s *Service) GetCart(ctx context.Context, actor model.Actor) (*model.Cart, error) {
	items, err := s.repo.ListCartItems(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return cartFromItems(items), nil
}

// AddToCart добавляет товар в корзину. Товар должен существовать и быть в наличии.
// Одинаковые товар, размер и цвет объединяются в одну позицию.
func (s *Service) AddToCart(ctx context.Context, actor model.Actor, line model.OrderLine) (*model.CartItem, error) {
	line.Size = strings.TrimSpace(line.Size)
	line.Color = strings.TrimSpace(line.Color)
	if err := validate(line); err != nil {
		return nil, err
	}

	p, err := s.repo.GetProduct(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.InStock {
		return nil, fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
	}

	return s.repo.AddCartItem(ctx, actor.UserID, line)
}

// UpdateCartItem меняет количество позиции корзины.
func (s *Service) UpdateCartItem(ctx context.Context, actor model.Actor, id int64, in CartQuantityInput) (*model.CartItem, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	return s.repo.UpdateCartItemQuantity(ctx, actor.UserID, id, in.Quantity)
}

// RemoveCartItem удаляет позицию корзины.
func (s *Service) RemoveCartItem(ctx context.Context, actor model.Actor, id int64) error {
	return s.repo.DeleteCartItem(ctx, actor.UserID, id)
}

// ClearCart очищает корзину текущего пользователя.
func (s *Service) ClearCart(ctx context.Context, actor model.Actor) error {
	return s.repo.ClearCart(ctx, actor.UserID)
}

// ListWishlist возвращает избранное текущего пользователя.
func (s *Service) ListWishlist(ctx context.Context, actor model.Actor) ([]model.WishlistItem, error) {
	return s.repo.ListWishlist(ctx, actor.UserID)
}

// AddToWishlist добавляет существующий товар в избранное.
func (s *Service) AddToWishlist(ctx context.Context, actor model.Actor, in WishlistInput) error {
	if err := validate(in); err != nil {
		return err
	}
	if _, err := s.repo.GetProduct(ctx, in.ProductID); err != nil {
		return err
	}
	return s.repo.AddToWishlist(ctx, actor.UserID, in.ProductID)
}

// RemoveFromWishlist удаляет товар из избранного.
func (s *Service) RemoveFromWishlist(ctx context.Context, actor model.Actor, productID int64) error {
	return s.repo.RemoveFromWishlist(ctx, actor.UserID, productID)
}
