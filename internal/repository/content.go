package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/fashion-store/internal/model"
)

const bannerColumns = `id, title, subtitle, image, link, position, is_active, created_at`

func scanBanner(row pgx.Row) (*model.Banner, error) {
	var b model.Banner
	err := row.Scan(&b.ID, &b.Title, &b.Subtitle, &b.Image, &b.Link, &b.Position, &b.IsActive, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBanners возвращает баннеры по порядку показа; onlyActive оставляет только активные.
func (r *PostgresRepository) ListBanners(ctx context.Context, onlyActive bool) ([]model.Banner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bannerColumns+` FROM banners WHERE is_active OR NOT $1 ORDER BY position, id`, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("select banners: %w", err)
	}
	defer rows.Close()

	res := []model.Banner{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan banner: %w", err)
		}
		res = append(res, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// GetBanner возвращает баннер по идентификатору.
func (r *PostgresRepository) GetBanner(ctx context.Context, id int64) (*model.Banner, error) {
	b, err := scanBanner(r.pool.QueryRow(ctx, `SELECT `+bannerColumns+` FROM banners WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "banner")
	}
	return b, nil
}

// CreateBanner сохраняет баннер.
func (r *PostgresRepository) CreateBanner(ctx context.Context, b model.Banner) (*model.Banner, error) {
	res, err := scanBanner(r.pool.QueryRow(ctx,
		`INSERT INTO banners (title, subtitle, image, link, position, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+bannerColumns,
		b.Title, b.Subtitle, b.Image, b.Link, b.Position, b.IsActive,
	))
	if err != nil {
		return nil, fmt.Errorf("create banner: %w", err)
	}
	return res, nil
}

// UpdateBanner перезаписывает баннер.
func (r *PostgresRepository) UpdateBanner(ctx context.Context, b model.Banner) (*model.Banner, error) {
	res, err := scanBanner(r.pool.QueryRow(ctx,
		`UPDATE banners SET title = $2, subtitle = $3, image = $4, link = $5, position = $6, is_active = $7
		 WHERE id = $1 RETURNING `+bannerColumns,
		b.ID, b.Title, b.Subtitle, b.Image, b.Link, b.Position, b.IsActive,
	))
	if err != nil {
		return nil, notFound(err, "banner")
	}
	return res, nil
}

// DeleteBanner удаляет баннер.
func (r *PostgresRepository) DeleteBanner(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("banner: %w", ErrNotFound)
	}
	return nil
}

// GetSettings возвращает все настройки магазина.
func (r *PostgresRepository) GetSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	res := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		res[k] = v
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// UpsertSettings сохраняет переданные настройки в одной транзакции.
func (r *PostgresRepository) UpsertSettings(ctx context.Context, values map[string]string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		for k, v := range values {
			_, err := tx.Exec(ctx,
				`INSERT INTO settings (key, value) VALUES ($1, $2)
				 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
				k, v,
			)
			if err != nil {
				return fmt.Errorf("upsert setting %s: %w", k, err)
			}
		}
		return nil
	})
}

const notificationColumns = `id, user_id, title, message, type, is_read, created_at`

// ListNotifications возвращает уведомления пользователя, новые первыми, и число непрочитанных.
func (r *PostgresRepository) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, 0, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	res := []model.Notification{}
	unread := 0
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		if !n.IsRead {
			unread++
		}
		res = append(res, n)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return res, unread, nil
}

// CreateNotification создаёт уведомление для одного пользователя либо, если userID равен nil,
// по уведомлению для каждого пользователя. Возвращает число созданных уведомлений.
func (r *PostgresRepository) CreateNotification(ctx context.Context, userID *int64, n model.Notification) (int64, error) {
	if userID != nil {
		tag, err := r.pool.Exec(ctx,
			`INSERT INTO notifications (user_id, title, message, type)
			 SELECT id, $2, $3, $4 FROM users WHERE id = $1`,
			*userID, n.Title, n.Message, n.Type,
		)
		if err != nil {
			return 0, fmt.Errorf("insert notification: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return 0, fmt.Errorf("user: %w", ErrNotFound)
		}
		return tag.RowsAffected(), nil
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (user_id, title, message, type)
		 SELECT id, $1, $2, $3 FROM users`,
		n.Title, n.Message, n.Type,
	)
	if err != nil {
		return 0, fmt.Errorf("broadcast notification: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkNotificationRead отмечает уведомление пользователя прочитанным.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification: %w", ErrNotFound)
	}
	return nil
}

// MarkAllNotificationsRead отмечает прочитанными все уведомления пользователя.
func (r *PostgresRepository) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// DeleteNotification удаляет уведомление пользователя.
func (r *PostgresRepository) DeleteNotification(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification: %w", ErrNotFound)
	}
	return nil
}

// Subscribe подписывает email на рассылку или возобновляет отменённую подписку.
func (r *PostgresRepository) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	var s model.Subscriber
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subscribers (email) VALUES ($1)
		 ON CONFLICT (email) DO UPDATE SET is_active = TRUE WHERE NOT subscribers.is_active
		 RETURNING id, email, is_active, created_at`,
		email,
	).Scan(&s.ID, &s.Email, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return &s, nil
}

// Unsubscribe отменяет подписку email.
func (r *PostgresRepository) Unsubscribe(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE subscribers SET is_active = FALSE WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscriber: %w", ErrNotFound)
	}
	return nil
}

// ListSubscribers возвращает подписчиков; onlyActive оставляет только действующие подписки.
func (r *PostgresRepository) ListSubscribers(ctx context.Context, onlyActive bool) ([]model.Subscriber, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, is_active, created_at FROM subscribers
		 WHERE is_active OR NOT $1 ORDER BY created_at, id`, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("select subscribers: %w", err)
	}
	defer rows.Close()

	res := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		res = append(res, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}
