package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/fashion-store/internal/model"
)

const addressColumns = `id, user_id, full_name, phone, street, city, state, postal_code, country,
	is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (*model.Address, error) {
	var a model.Address
	err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Street, &a.City, &a.State, &a.PostalCode,
		&a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// lockUser блокирует строку пользователя до конца транзакции, чтобы операции
// с его адресами выполнялись последовательно.
func lockUser(ctx context.Context, tx pgx.Tx, userID int64) error {
	var dummy int
	err := tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&dummy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user: %w", ErrNotFound)
		}
		return fmt.Errorf("lock user for update: %w", err)
	}
	return nil
}

func unsetDefaults(ctx context.Context, tx pgx.Tx, userID int64) error {
	_, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return fmt.Errorf("unset default addresses: %w", err)
	}
	return nil
}

// ListAddresses возвращает адреса пользователя: адрес по умолчанию первым, затем новые.
func (r *PostgresRepository) ListAddresses(ctx context.Context, userID int64) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1
		 ORDER BY is_default DESC, created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select addresses: %w", err)
	}
	defer rows.Close()

	res := []model.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		res = append(res, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// GetAddress возвращает адрес пользователя.
func (r *PostgresRepository) GetAddress(ctx context.Context, userID, id int64) (*model.Address, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err, "address")
	}
	return a, nil
}

// CreateAddress сохраняет адрес. Первый адрес пользователя всегда становится адресом по умолчанию.
func (r *PostgresRepository) CreateAddress(ctx context.Context, a model.Address) (*model.Address, error) {
	var created *model.Address

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, a.UserID); err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, a.UserID).Scan(&count); err != nil {
			return fmt.Errorf("count addresses: %w", err)
		}

		makeDefault := a.IsDefault || count == 0
		if makeDefault {
			if err := unsetDefaults(ctx, tx, a.UserID); err != nil {
				return err
			}
		}

		res, err := scanAddress(tx.QueryRow(ctx,
			`INSERT INTO addresses (user_id, full_name, phone, street, city, state, postal_code, country, is_default)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+addressColumns,
			a.UserID, a.FullName, a.Phone, a.Street, a.City, a.State, a.PostalCode, a.Country, makeDefault,
		))
		if err != nil {
			return fmt.Errorf("insert address: %w", err)
		}

		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateAddress перезаписывает поля адреса. Если адрес делается адресом по умолчанию,
// флаг снимается с остальных адресов пользователя. Снять флаг с текущего адреса
// по умолчанию нельзя: у пользователя с адресами всегда есть ровно один такой адрес.
func (r *PostgresRepository) UpdateAddress(ctx context.Context, a model.Address) (*model.Address, error) {
	var updated *model.Address

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, a.UserID); err != nil {
			return err
		}

		var wasDefault bool
		err := tx.QueryRow(ctx,
			`SELECT is_default FROM addresses WHERE id = $1 AND user_id = $2`, a.ID, a.UserID,
		).Scan(&wasDefault)
		if err != nil {
			return notFound(err, "address")
		}

		if a.IsDefault && !wasDefault {
			if err := unsetDefaults(ctx, tx, a.UserID); err != nil {
				return err
			}
		}

		res, err := scanAddress(tx.QueryRow(ctx,
			`UPDATE addresses SET full_name = $3, phone = $4, street = $5, city = $6, state = $7,
			        postal_code = $8, country = $9, is_default = $10, updated_at = NOW()
			 WHERE id = $1 AND user_id = $2 RETURNING `+addressColumns,
			a.ID, a.UserID, a.FullName, a.Phone, a.Street, a.City, a.State, a.PostalCode, a.Country,
			a.IsDefault || wasDefault,
		))
		if err != nil {
			return fmt.Errorf("update address: %w", err)
		}

		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAddress удаляет адрес. Если удалён адрес по умолчанию, им становится
// последний из созданных оставшихся адресов пользователя.
func (r *PostgresRepository) DeleteAddress(ctx context.Context, userID, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		var wasDefault bool
		err := tx.QueryRow(ctx,
			`DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_default`, id, userID,
		).Scan(&wasDefault)
		if err != nil {
			return notFound(err, "address")
		}

		if !wasDefault {
			return nil
		}

		_, err = tx.Exec(ctx,
			`UPDATE addresses SET is_default = TRUE, updated_at = NOW()
			 WHERE id = (
			     SELECT id FROM addresses WHERE user_id = $1
			     ORDER BY created_at DESC, id DESC
			     LIMIT 1
			 )`, userID)
		if err != nil {
			return fmt.Errorf("reassign default address: %w", err)
		}
		return nil
	})
}

// SetDefaultAddress делает адрес адресом по умолчанию.
func (r *PostgresRepository) SetDefaultAddress(ctx context.Context, userID, id int64) (*model.Address, error) {
	var res *model.Address

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`, id, userID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check address: %w", err)
		}
		if !exists {
			return fmt.Errorf("address: %w", ErrNotFound)
		}

		if err := unsetDefaults(ctx, tx, userID); err != nil {
			return err
		}

		a, err := scanAddress(tx.QueryRow(ctx,
			`UPDATE addresses SET is_default = TRUE, updated_at = NOW()
			 WHERE id = $1 AND user_id = $2 RETURNING `+addressColumns, id, userID))
		if err != nil {
			return fmt.Errorf("set default address: %w", err)
		}

		res = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
