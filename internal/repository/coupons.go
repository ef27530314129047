package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/fashion-store/internal/model"
)

const couponColumns = `id, code, discount, discount_type, min_purchase, expires_at, is_active, created_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var (
		c  model.Coupon
		dt string
	)
	err := row.Scan(&c.ID, &c.Code, &c.Discount, &dt, &c.MinPurchase, &c.ExpiresAt, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.DiscountType = model.DiscountType(dt)
	return &c, nil
}

func (r *PostgresRepository) queryCoupons(ctx context.Context, query string, args ...any) ([]model.Coupon, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select coupons: %w", err)
	}
	defer rows.Close()

	res := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		res = append(res, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// ListActiveCoupons возвращает активные купоны, срок действия которых не истёк к моменту now.
func (r *PostgresRepository) ListActiveCoupons(ctx context.Context, now time.Time) ([]model.Coupon, error) {
	return r.queryCoupons(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE is_active AND expires_at > $1 ORDER BY expires_at`, now)
}

// ListCoupons возвращает все купоны.
func (r *PostgresRepository) ListCoupons(ctx context.Context) ([]model.Coupon, error) {
	return r.queryCoupons(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC, id DESC`)
}

// GetCouponByCode возвращает купон по коду.
func (r *PostgresRepository) GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code))
	if err != nil {
		return nil, notFound(err, "coupon")
	}
	return c, nil
}

// CreateCoupon сохраняет новый купон.
func (r *PostgresRepository) CreateCoupon(ctx context.Context, c model.Coupon) (*model.Coupon, error) {
	res, err := scanCoupon(r.pool.QueryRow(ctx,
		`INSERT INTO coupons (code, discount, discount_type, min_purchase, expires_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+couponColumns,
		c.Code, c.Discount, string(c.DiscountType), c.MinPurchase, c.ExpiresAt, c.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrCouponCodeExists, c.Code)
		}
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	return res, nil
}

// UpdateCoupon перезаписывает купон.
func (r *PostgresRepository) UpdateCoupon(ctx context.Context, c model.Coupon) (*model.Coupon, error) {
	res, err := scanCoupon(r.pool.QueryRow(ctx,
		`UPDATE coupons SET code = $2, discount = $3, discount_type = $4, min_purchase = $5,
		        expires_at = $6, is_active = $7
		 WHERE id = $1 RETURNING `+couponColumns,
		c.ID, c.Code, c.Discount, string(c.DiscountType), c.MinPurchase, c.ExpiresAt, c.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrCouponCodeExists, c.Code)
		}
		return nil, notFound(err, "coupon")
	}
	return res, nil
}

// GetCoupon возвращает купон по идентификатору.
func (r *PostgresRepository) GetCoupon(ctx context.Context, id int64) (*model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "coupon")
	}
	return c, nil
}

// DeleteCoupon удаляет купон; в заказах ссылка на него обнуляется.
func (r *PostgresRepository) DeleteCoupon(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("coupon: %w", ErrNotFound)
	}
	return nil
}
