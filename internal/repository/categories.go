package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
)

func (r *Repository) GetAllCategories(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT id, name, description, created_at FROM categories ORDER BY id`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		category := &domain.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *Repository) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT name, description, created_at FROM categories WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	category := &domain.Category{
		ID: id,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&category.Name, &category.Description, &category.CreatedAt); err != nil {
		return nil, err
	}

	return category, nil
}

// GetCategoryIDByName 按名称精确匹配，名称不唯一时取最早创建的一条
func (r *Repository) GetCategoryIDByName(ctx context.Context, name string) (int64, error) {
	query := `SELECT id FROM categories WHERE name = $1 ORDER BY id LIMIT 1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	// 空名称按 NULL 写入，由 NOT NULL 约束拒绝
	return r.dbpool.QueryRowContext(ctx, query, nullable(category.Name), category.Description).Scan(&category.ID, &category.CreatedAt)
}

func (r *Repository) UpdateCategory(ctx context.Context, category *domain.Category) error {
	query := `UPDATE categories SET name = $1, description = $2 WHERE id = $3`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, category.Name, category.Description, category.ID)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	query := `DELETE FROM categories WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
