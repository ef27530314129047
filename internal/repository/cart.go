package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/fashion-store/internal/model"
)

const summaryColumns = `p.id, p.name, p.slug, COALESCE(p.images[1], ''), p.price, p.sale_price, p.in_stock`

const cartItemQuery = `SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.size, ci.color, ci.created_at, ` +
	summaryColumns + `
	 FROM cart_items ci JOIN products p ON p.id = ci.product_id`

func scanCartItem(row pgx.Row) (*model.CartItem, error) {
	var (
		it model.CartItem
		s  = &it.Product
	)
	err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.Size, &it.Color, &it.CreatedAt,
		&s.ID, &s.Name, &s.Slug, &s.Image, &s.Price, &s.SalePrice, &s.InStock)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ListCartItems возвращает позиции корзины пользователя в порядке добавления.
func (r *PostgresRepository) ListCartItems(ctx context.Context, userID int64) ([]model.CartItem, error) {
	rows, err := r.pool.Query(ctx, cartItemQuery+` WHERE ci.user_id = $1 ORDER BY ci.created_at, ci.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, *it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

// AddCartItem добавляет товар в корзину; одинаковые товар, размер и цвет объединяются в одну позицию.
func (r *PostgresRepository) AddCartItem(ctx context.Context, userID int64, line model.OrderLine) (*model.CartItem, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity, size, color) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, product_id, size, color)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING id`,
		userID, line.ProductID, line.Quantity, line.Size, line.Color,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert cart item: %w", err)
	}
	return r.getCartItem(ctx, userID, id)
}

func (r *PostgresRepository) getCartItem(ctx context.Context, userID, id int64) (*model.CartItem, error) {
	it, err := scanCartItem(r.pool.QueryRow(ctx, cartItemQuery+` WHERE ci.id = $1 AND ci.user_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err, "cart item")
	}
	return it, nil
}

// UpdateCartItemQuantity меняет количество товара в позиции корзины пользователя.
func (r *PostgresRepository) UpdateCartItemQuantity(ctx context.Context, userID, id int64, quantity int) (*model.CartItem, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE id = $1 AND user_id = $2`, id, userID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("cart item: %w", ErrNotFound)
	}
	return r.getCartItem(ctx, userID, id)
}

// DeleteCartItem удаляет позицию из корзины пользователя.
func (r *PostgresRepository) DeleteCartItem(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cart item: %w", ErrNotFound)
	}
	return nil
}

// ClearCart удаляет все позиции корзины пользователя.
func (r *PostgresRepository) ClearCart(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

const wishlistQuery = `SELECT w.id, w.product_id, w.created_at, ` + summaryColumns + `
	 FROM wishlist_items w JOIN products p ON p.id = w.product_id`

// ListWishlist возвращает избранные товары пользователя, новые первыми.
func (r *PostgresRepository) ListWishlist(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	rows, err := r.pool.Query(ctx, wishlistQuery+` WHERE w.user_id = $1 ORDER BY w.created_at DESC, w.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select wishlist: %w", err)
	}
	defer rows.Close()

	items := []model.WishlistItem{}
	for rows.Next() {
		var (
			it model.WishlistItem
			s  = &it.Product
		)
		err := rows.Scan(&it.ID, &it.ProductID, &it.CreatedAt,
			&s.ID, &s.Name, &s.Slug, &s.Image, &s.Price, &s.SalePrice, &s.InStock)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

// AddToWishlist добавляет товар в избранное пользователя.
func (r *PostgresRepository) AddToWishlist(ctx context.Context, userID, productID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2)`, userID, productID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyInWishlist
		}
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	return nil
}

// RemoveFromWishlist удаляет товар из избранного пользователя.
func (r *PostgresRepository) RemoveFromWishlist(ctx context.Context, userID, productID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wishlist item: %w", ErrNotFound)
	}
	return nil
}
