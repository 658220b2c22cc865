package repository

import (
	"context"
	"database/sql"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
)

const userColumns = `id, username, password_hash, role, real_name, email, phone, department, status, last_login, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	dst := []any{
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.RealName,
		&user.Email,
		&user.Phone,
		&user.Department,
		&user.Status,
		&user.LastLogin,
		&user.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, username))
}

// GetActiveUserByUsername 只返回状态为 active 的用户，被禁用的用户与不存在的用户同样返回 sql.ErrNoRows
func (r *Repository) GetActiveUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND status = 'active'`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, username))
}

func (r *Repository) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash, role, real_name, email, phone, department, status)
		VALUES ($1, $2, COALESCE($3, 'user'), $4, $5, $6, $7, COALESCE($8, 'active'))
		RETURNING id, role, status, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{
		user.Username,
		user.PasswordHash,
		nullable(user.Role),
		user.RealName,
		user.Email,
		user.Phone,
		user.Department,
		nullable(user.Status),
	}
	dst := []any{&user.ID, &user.Role, &user.Status, &user.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

// UpdateUser 将补丁转换为一条参数化的 UPDATE，补丁中为 nil 的字段保持原值
func (r *Repository) UpdateUser(ctx context.Context, id int64, patch *domain.UserPatch) error {
	query := `
		UPDATE users
		SET
			username = COALESCE($1, username),
			password_hash = COALESCE($2, password_hash),
			role = COALESCE($3, role),
			real_name = COALESCE($4, real_name),
			email = COALESCE($5, email),
			phone = COALESCE($6, phone),
			department = COALESCE($7, department),
			status = COALESCE($8, status),
			updated_at = NOW()
		WHERE id = $9
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{
		patch.Username,
		patch.PasswordHash,
		(*string)(patch.Role),
		patch.RealName,
		patch.Email,
		patch.Phone,
		patch.Department,
		(*string)(patch.Status),
		id,
	}
	result, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func (r *Repository) TouchLastLogin(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_login = NOW() WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}

func (r *Repository) ActivateUserByUsername(ctx context.Context, username string) error {
	query := `UPDATE users SET status = 'active', updated_at = NOW() WHERE username = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, username)
	return err
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
