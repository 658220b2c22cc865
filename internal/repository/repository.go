package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// nullable 将空字符串视为 NULL
func nullable[T ~string](v T) any {
	if v == "" {
		return nil
	}
	return string(v)
}
