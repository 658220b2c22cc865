// Package importer 把表格中解析出的行依次写入存储：按名称查找分类，不存在则创建，然后插入资产。
// 行与行之间没有事务包裹，某一行失败时之前的行已经写入。
package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
)

type Store interface {
	GetCategoryIDByName(ctx context.Context, name string) (int64, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	CreateAsset(ctx context.Context, asset *domain.Asset) error
}

// RowError 指明导入在哪一行中止
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("第 %d 行导入失败: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type Result struct {
	Imported          int
	CreatedCategories int
}

func Import(ctx context.Context, store Store, rows []domain.ImportRow) (Result, error) {
	var result Result

	for _, row := range rows {
		categoryID, created, err := resolveCategory(ctx, store, row.CategoryName)
		if err != nil {
			return result, &RowError{Line: row.Line, Err: err}
		}
		if created {
			result.CreatedCategories++
		}

		if err := store.CreateAsset(ctx, row.Asset(categoryID)); err != nil {
			return result, &RowError{Line: row.Line, Err: err}
		}
		result.Imported++
	}

	return result, nil
}

func resolveCategory(ctx context.Context, store Store, name string) (int64, bool, error) {
	id, err := store.GetCategoryIDByName(ctx, name)
	switch {
	case err == nil:
		return id, false, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return 0, false, err
	}

	category := &domain.Category{Name: name}
	if err := store.CreateCategory(ctx, category); err != nil {
		return 0, false, err
	}
	return category.ID, true, nil
}
