package seed

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type Store interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	ActivateUserByUsername(ctx context.Context, username string) error
	GetCategoryIDByName(ctx context.Context, name string) (int64, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
}

var DefaultCategories = []domain.Category{
	{Name: "交换机", Description: ptr("网络交换设备")},
	{Name: "路由器", Description: ptr("网络路由设备")},
	{Name: "服务器", Description: ptr("各类服务器设备")},
	{Name: "工作站", Description: ptr("高性能工作站")},
	{Name: "打印机", Description: ptr("打印输出设备")},
	{Name: "显示器", Description: ptr("显示设备")},
	{Name: "安全设备", Description: ptr("防火墙等网络安全设备")},
	{Name: "存储设备", Description: ptr("NAS、SAN等存储设备")},
}

func ptr(s string) *string { return &s }

// EnsureInitialAdmin 在初始管理员不存在时创建它，存在时确保其处于启用状态
func EnsureInitialAdmin(ctx context.Context, store Store, cfg *config.Config) error {
	_, err := store.GetUserByUsername(ctx, cfg.InitialAdmin.Username)
	switch {
	case err == nil:
		slog.Info("初始管理员已存在", "username", cfg.InitialAdmin.Username)
		return store.ActivateUserByUsername(ctx, cfg.InitialAdmin.Username)
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		Role:         domain.RoleAdmin,
		RealName:     cfg.InitialAdmin.RealName,
		Email:        cfg.InitialAdmin.Email,
		Status:       domain.UserStatusActive,
	}
	if err := store.CreateUser(ctx, admin); err != nil {
		return err
	}

	slog.Info("已创建初始管理员", "username", admin.Username)
	return nil
}

// EnsureDefaultCategories 按名称补齐缺失的默认分类，返回新建的数量
func EnsureDefaultCategories(ctx context.Context, store Store) (int, error) {
	created := 0
	for _, c := range DefaultCategories {
		_, err := store.GetCategoryIDByName(ctx, c.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return created, err
		}

		category := c
		if err := store.CreateCategory(ctx, &category); err != nil {
			return created, err
		}
		slog.Info("添加默认分类", "name", category.Name)
		created++
	}

	return created, nil
}
