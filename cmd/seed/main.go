package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var username string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机资产, 3: 重置用户密码)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&username, "username", "", "要重置密码的用户名")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
			return
		}
		seedUsers(repo, cfg, n)
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的资产数量")
			return
		}
		seedAssets(repo, n)
	case 3:
		if username == "" {
			slog.Error("请通过 -username 指定用户")
			return
		}
		resetPassword(repo, username)
	default:
		slog.Error("指定的操作非法")
	}
}

func seedUsers(repo *repository.Repository, cfg *config.Config, n int) {
	cnt := 0
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("无法生成随机用户", slog.String("error", err.Error()))
			continue
		}

		if err := repo.CreateUser(context.Background(), user); err != nil {
			slog.Error("无法插入用户", slog.String("username", user.Username), slog.String("error", err.Error()))
			continue
		}

		cnt++
	}

	slog.Info("插入用户成功", slog.Int("count", cnt))
}

func seedAssets(repo *repository.Repository, n int) {
	categories, err := repo.GetAllCategories(context.Background())
	if err != nil {
		slog.Error("无法获取分类", slog.String("error", err.Error()))
		return
	}
	if len(categories) == 0 {
		slog.Error("数据库中没有分类，请先启动 api 服务以创建默认分类")
		return
	}

	users, err := repo.GetAllUsers(context.Background())
	if err != nil {
		slog.Error("无法获取用户", slog.String("error", err.Error()))
		return
	}

	cnt := 0
	for i := 0; i < n; i++ {
		category := categories[i%len(categories)]
		asset := utils.GenerateRandomAsset(category, users)
		if err := repo.CreateAsset(context.Background(), asset); err != nil {
			slog.Error("无法插入资产", slog.String("error", err.Error()))
			continue
		}

		cnt++
	}

	slog.Info("插入资产成功", slog.Int("count", cnt))
}

func resetPassword(repo *repository.Repository, username string) {
	user, err := repo.GetUserByUsername(context.Background(), username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			slog.Error("用户不存在", slog.String("username", username))
		default:
			slog.Error("无法获取用户", slog.String("error", err.Error()))
		}
		return
	}

	password, err := readPassword("新密码: ")
	if err != nil {
		slog.Error("无法读取密码", slog.String("error", err.Error()))
		return
	}
	confirm, err := readPassword("确认新密码: ")
	if err != nil {
		slog.Error("无法读取密码", slog.String("error", err.Error()))
		return
	}
	if password == "" || password != confirm {
		slog.Error("两次输入的密码不一致或为空")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("无法生成密码哈希", slog.String("error", err.Error()))
		return
	}
	hash := string(hashedPassword)

	if err := repo.UpdateUser(context.Background(), user.ID, &domain.UserPatch{PasswordHash: &hash}); err != nil {
		slog.Error("无法更新密码", slog.String("error", err.Error()))
		return
	}

	slog.Info("密码已重置", slog.String("username", username))
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
