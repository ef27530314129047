package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/fashion-store/internal/model"
)

const orderColumns = `id, user_id, status, subtotal, discount, total, shipping_address, payment_method,
	coupon_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &status, &o.Subtotal, &o.Discount, &o.Total, &o.ShippingAddress,
		&o.PaymentMethod, &o.CouponID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}

// CreateOrder сохраняет заказ с позициями и очищает корзину пользователя в одной транзакции.
// При ошибке корзина остаётся нетронутой.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o model.Order) (*model.Order, error) {
	var created *model.Order

	err := r.withRetry(ctx, func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			res, err := scanOrder(tx.QueryRow(ctx,
				`INSERT INTO orders (user_id, status, subtotal, discount, total, shipping_address, payment_method, coupon_id)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 RETURNING `+orderColumns,
				o.UserID, string(o.Status), o.Subtotal, o.Discount, o.Total, o.ShippingAddress, o.PaymentMethod, o.CouponID,
			))
			if err != nil {
				return fmt.Errorf("insert order: %w", err)
			}

			res.Items = make([]model.OrderItem, 0, len(o.Items))
			for _, it := range o.Items {
				it.OrderID = res.ID
				err := tx.QueryRow(ctx,
					`INSERT INTO order_items (order_id, product_id, product_name, quantity, price, size, color)
					 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
					res.ID, it.ProductID, it.ProductName, it.Quantity, it.Price, it.Size, it.Color,
				).Scan(&it.ID)
				if err != nil {
					return fmt.Errorf("insert order item: %w", err)
				}
				res.Items = append(res.Items, it)
			}

			if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, o.UserID); err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}

			created = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// loadOrderItems заполняет позиции для переданных заказов.
func (r *PostgresRepository) loadOrderItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		index[orders[i].ID] = i
		orders[i].Items = []model.OrderItem{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, COALESCE(product_id, 0), product_name, quantity, price, size, color
		 FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`, ids)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Size, &it.Color)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	rows.Close()

	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder возвращает заказ пользователя по идентификатору. Чужой заказ считается ненайденным.
func (r *PostgresRepository) GetOrder(ctx context.Context, userID, id int64) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err, "order")
	}

	orders := []model.Order{*o}
	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

// ListOrders возвращает страницу всех заказов с необязательным фильтром по статусу.
func (r *PostgresRepository) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int64, error) {
	var status *string
	if f.Status != "" {
		s := string(f.Status)
		status = &s
	}

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE $1::text IS NULL OR status = $1`, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	p := model.Pagination{Page: f.Page, Limit: f.Limit}
	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE $1::text IS NULL OR status = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		status, f.Limit, p.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateOrderStatus устанавливает статус заказа.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+orderColumns,
		id, string(status),
	))
	if err != nil {
		return nil, notFound(err, "order")
	}

	orders := []model.Order{*o}
	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}
