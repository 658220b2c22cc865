package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
)

const assetSelect = `
	SELECT
		a.id,
		a.name,
		a.category_id,
		c.name,
		a.status,
		a.ip_address,
		a.port,
		a.location,
		to_char(a.add_date, 'YYYY-MM-DD'),
		a.purchase_price::text,
		a.current_value::text,
		a.assigned_to,
		u.username,
		a.remarks,
		a.created_at
	FROM assets a
	LEFT JOIN categories c ON a.category_id = c.id
	LEFT JOIN users u ON a.assigned_to = u.id
`

func scanAsset(row interface{ Scan(...any) error }) (*domain.Asset, error) {
	asset := &domain.Asset{}
	dst := []any{
		&asset.ID,
		&asset.Name,
		&asset.CategoryID,
		&asset.CategoryName,
		&asset.Status,
		&asset.IPAddress,
		&asset.Port,
		&asset.Location,
		&asset.AddDate,
		&asset.PurchasePrice,
		&asset.CurrentValue,
		&asset.AssignedTo,
		&asset.AssignedToName,
		&asset.Remarks,
		&asset.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return asset, nil
}

// GetAllAssets 返回全部资产，并附带分类名称和分配用户的用户名
func (r *Repository) GetAllAssets(ctx context.Context) ([]*domain.Asset, error) {
	query := assetSelect + ` ORDER BY a.id`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assets, nil
}

func (r *Repository) GetAssetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	query := assetSelect + ` WHERE a.id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanAsset(r.dbpool.QueryRowContext(ctx, query, id))
}

// assetArgs 中空名称按 NULL 传入，导入空行时由 NOT NULL 约束拒绝
func assetArgs(asset *domain.Asset) []any {
	return []any{
		nullable(asset.Name),
		asset.CategoryID,
		nullable(asset.Status),
		asset.IPAddress,
		asset.Port,
		asset.Location,
		asset.AddDate,
		asset.PurchasePrice,
		asset.CurrentValue,
		asset.AssignedTo,
		asset.Remarks,
	}
}

// CreateAsset 插入资产，状态为空时使用默认值 available
func (r *Repository) CreateAsset(ctx context.Context, asset *domain.Asset) error {
	query := `
		INSERT INTO assets (
			name, category_id, status, ip_address, port, location,
			add_date, purchase_price, current_value, assigned_to, remarks
		)
		VALUES ($1, $2, COALESCE($3, 'available'), $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, status, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, assetArgs(asset)...).Scan(&asset.ID, &asset.Status, &asset.CreatedAt)
}

func (r *Repository) UpdateAsset(ctx context.Context, asset *domain.Asset) error {
	query := `
		UPDATE assets
		SET
			name = $1,
			category_id = $2,
			status = COALESCE($3, status),
			ip_address = $4,
			port = $5,
			location = $6,
			add_date = $7,
			purchase_price = $8,
			current_value = $9,
			assigned_to = $10,
			remarks = $11
		WHERE id = $12
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := append(assetArgs(asset), asset.ID)
	result, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func (r *Repository) DeleteAsset(ctx context.Context, id int64) error {
	query := `DELETE FROM assets WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
