package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/maywin-dev/nurse-roster/backend/internal/config"
	"github.com/maywin-dev/nurse-roster/backend/internal/repository"
	"github.com/maywin-dev/nurse-roster/backend/internal/seed"
	"github.com/maywin-dev/nurse-roster/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var adminID int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 创建数据表, 2: 插入随机护士账号, 3: 插入演示数据集)")
	flag.IntVar(&n, "n", 5, "要插入的护士账号数量")
	flag.Int64Var(&adminID, "admin-id", 1, "演示数据集的创建者 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("加载配置失败", "error", err)
		os.Exit(1)
	}

	// 建立数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("创建数据库连接池失败", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	// sql.Open 不会真正建立连接，这里 ping 一下尽早暴露配置问题
	pingCtx, cancelPing := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancelPing()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("连接数据库失败", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("未指定操作，用 -op 选择要执行的操作")
	case 1:
		if err := seed.Bootstrap(cfg, dbpool); err != nil {
			slog.Error("创建数据表失败", "error", err)
			return
		}
		slog.Info("创建数据表成功")
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的护士账号数量")
			return
		}

		inserted := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomNurse(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("生成随机护士账号失败", "error", err)
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("插入护士账号失败", "error", err, slog.String("username", user.Username))
				continue
			}

			inserted++
		}

		slog.Info("插入护士账号完成", slog.Int("inserted", inserted), slog.Int("requested", n))
	case 3:
		// 确认创建者存在，外键不允许悬空
		if _, err := repo.GetUserByID(adminID); err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				slog.Error("指定的创建者不存在", slog.Int64("admin_id", adminID))
			default:
				slog.Error("获取创建者信息失败", "error", err)
			}
			return
		}

		ds := seed.DemoDataset(adminID)
		if err := repo.CreateDataset(ds); err != nil {
			slog.Error("插入演示数据集失败", "error", err)
			return
		}
		slog.Info("插入演示数据集成功", slog.Int64("id", ds.ID))
	default:
		slog.Error("指定的操作非法")
	}
}
