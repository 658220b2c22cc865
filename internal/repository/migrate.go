package repository

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/migrations"
)

// Migrate 按版本顺序执行尚未应用的迁移，已应用的版本记录在 goose_db_version 表中
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
