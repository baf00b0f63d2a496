package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

// CreateUser сохраняет пользователя и заполняет ID и CreatedAt.
// Повторный email даёт ErrInvalidState.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, phone, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Name, u.Email, u.Phone, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return mapError("create user", err)
	}
	return nil
}

// GetUser возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, email, phone, role, created_at FROM users WHERE id = $1`,
			id,
		).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt)
	})
	if err != nil {
		return nil, mapError(fmt.Sprintf("get user %d", id), err)
	}
	return &u, nil
}

// UpdateUser сохраняет профиль и роль пользователя.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, phone = $4, role = $5 WHERE id = $1`,
		u.ID, u.Name, u.Email, u.Phone, u.Role,
	)
	if err != nil {
		return mapError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", model.ErrNotFound, u.ID)
	}
	return nil
}
