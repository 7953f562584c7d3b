package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maywin-dev/nurse-roster/backend/internal/config"
	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/maywin-dev/nurse-roster/backend/internal/handler"
	"github.com/maywin-dev/nurse-roster/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ensureInitialAdmin 保证数据库里始终存在初始管理员，已经建过时什么都不做
func ensureInitialAdmin(repo *repository.Repository, cfg *config.Config) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("生成初始管理员密码哈希失败: %w", err)
	}

	admin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleAdmin,
	}

	if err := repo.CreateUser(admin); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key" {
			// 用户名冲突说明初始管理员已经存在
			return nil
		}
		return err
	}

	return nil
}

func main() {
	/**********************************************
	 * 初始化日志
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("加载配置失败", "error", err)
		return
	}

	/**********************************************
	 * 建立 PostgreSQL 连接池
	 **********************************************/
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

	/**********************************************
	 * 初始管理员
	 **********************************************/
	if err := ensureInitialAdmin(repo, cfg); err != nil {
		logger.Error("创建初始管理员失败", "error", err)
		return
	}

	/**********************************************
	 * 连接 RabbitMQ 并声明求解任务队列
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("连接 rabbitmq 失败", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("建立 rabbitmq 通道失败", "error", err)
		return
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(domain.SolveQueueName, true, false, false, false, nil); err != nil {
		logger.Error("声明求解任务队列失败", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	redisCtx, cancelRedis := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancelRedis()

	if err := rdb.Ping(redisCtx).Err(); err != nil {
		logger.Error("连接 redis 失败", "error", err)
		return
	}

	/**********************************************
	 * 创建 handler 并注册路由
	 **********************************************/
	h, err := handler.NewHandler(cfg, repo, ch, rdb)
	if err != nil {
		logger.Error("创建 handler 失败", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("服务器启动", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("服务器异常退出", "error", err)
		}
	}()

	<-rootCtx.Done()
	logger.Info("收到退出信号，正在关闭服务器...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭服务器失败", "error", err)
		return
	}
	logger.Info("服务器已关闭")
}
