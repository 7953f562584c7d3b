package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/maywin-dev/nurse-roster/backend/internal/config"
	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/maywin-dev/nurse-roster/backend/internal/repository"
	"github.com/maywin-dev/nurse-roster/backend/internal/scheduler"
	"github.com/maywin-dev/nurse-roster/backend/internal/solver"
	"github.com/maywin-dev/nurse-roster/backend/internal/utils"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/wneessen/go-mail"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// 求解结束后发给创建者的通知邮件正文
var runFinishedTmpl = template.Must(template.New("run_finished").Parse(`<p>{{.FullName}}，您好：</p>
<p>您在数据集「{{.DatasetName}}」上创建的求解任务 #{{.RunID}} 已结束。</p>
<ul>
  <li>任务状态：{{.Status}}</li>
  <li>求解状态：{{.SolverStatus}}</li>
  <li>目标函数值：{{.Objective}}</li>
</ul>
<p>请登录护士排班系统查看完整排班表。</p>`))

// worker 持有执行求解任务所需的全部依赖
type worker struct {
	cfg        *config.Config
	logger     *slog.Logger
	repo       *repository.Repository
	solver     scheduler.Solver
	rdb        *redis.Client
	mailClient *mail.Client
}

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", slog.String("error", err.Error()))
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancelPing()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	mailClient, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer mailClient.Close()

	// 验证邮件客户端是否连接成功
	dialCtx, cancelDial := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancelDial()
	if err := mailClient.DialWithContext(dialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
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

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		domain.SolveQueueName, // 队列名称
		true,                  // 是否持久化
		false,                 // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false,                 // 是否独占，即是否允许多个消费者访问这个队列
		false,                 // 是否不等待，设置为 false，即等待 RabbitMQ 确认队列是否创建成功
		nil,                   // 额外参数
	)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 求解会占满 CPU，按配置限制同时认领的任务数
	if err := ch.Qos(cfg.RabbitMQ.Prefetch, 0, false); err != nil {
		logger.Error("无法设置预取数量", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建求解器
	 **********************************************/
	highsSolver := solver.NewHiGHS(solver.Options{
		TimeLimitSec: cfg.Solver.TimeLimitSec,
		Threads:      cfg.Solver.Threads,
		MIPRelGap:    cfg.Solver.MIPRelGap,
		Output:       cfg.Solver.Output,
	})

	w := &worker{
		cfg:        cfg,
		logger:     logger,
		repo:       repository.NewRepository(cfg, dbpool),
		solver:     highsSolver,
		rdb:        rdb,
		mailClient: mailClient,
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false,  // 是否自动确认消息
		false,  // 是否独占队列
		false,  // 是否禁止消费者接受自己发送的消息，必须设置为 false，因为 RabbitMQ 不支持这个参数
		false,  // 是否不等待，等待 RabbitMQ 响应
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					// 连接断开后消息通道会被关闭
					logger.Error("消息通道已关闭")
					return
				}

				logger.Info("收到求解任务", slog.String("message", string(msg.Body)))

				task := domain.SolveTask{}
				if err := json.Unmarshal(msg.Body, &task); err != nil {
					logger.Error("求解任务反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				if requeue := w.execute(ctx, task.RunID); requeue {
					_ = msg.Nack(false, true) // 将消息重新入队
					continue
				}

				// 确认消息
				_ = msg.Ack(false)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待求解任务...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出，正在进行的求解会执行到底
	slog.Info("正在关闭 solve worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("solve worker 已成功关闭")
}

// execute 认领并执行一个求解任务
// 返回 true 表示基础设施出错、消息应重新入队；任务本身的失败会记录在任务行上，不重试
func (w *worker) execute(ctx context.Context, runID int64) (requeue bool) {
	run, err := w.repo.ClaimSolveRun(runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 已被其他 worker 认领，或任务已经结束
			w.logger.Info("任务无需认领", slog.Int64("run_id", runID))
			return false
		}
		w.logger.Error("认领任务失败", slog.Int64("run_id", runID), slog.String("error", err.Error()))
		return true
	}

	ds, err := w.repo.GetDatasetByID(run.DatasetID)
	if err != nil {
		w.fail(run.ID, fmt.Sprintf("读取数据集失败: %v", err))
		return false
	}

	data, err := scheduler.FromDataset(ds)
	if err != nil {
		w.fail(run.ID, fmt.Sprintf("数据集校验失败: %v", err))
		return false
	}

	s, err := scheduler.New(data, &scheduler.Parameters{Weights: run.Weights, Rules: run.Rules}, w.solver)
	if err != nil {
		w.fail(run.ID, fmt.Sprintf("构造求解流程失败: %v", err))
		return false
	}

	start := time.Now()
	outcome, err := s.Run(ctx)
	wallTime := time.Since(start).Seconds()
	if err != nil {
		w.fail(run.ID, fmt.Sprintf("求解失败: %v", err))
		return false
	}

	// 入库前核对排班表，建模或解码的缺陷不允许混进数据库
	if outcome.Roster != nil {
		if err := utils.ValidateRosterWithDataset(outcome.Roster, ds, run.Rules); err != nil {
			w.fail(run.ID, fmt.Sprintf("排班表未通过核对: %v", err))
			return false
		}
	}

	run.SolverStatus = outcome.Status.String()
	run.WallTimeSec = &wallTime
	if outcome.Status.HasRoster() {
		objective := outcome.Objective
		run.Objective = &objective
	}

	if err := w.repo.CompleteSolveRun(run, outcome.Roster); err != nil {
		w.logger.Error("写入求解结果失败", slog.Int64("run_id", run.ID), slog.String("error", err.Error()))
		return false
	}

	w.logger.Info("求解任务结束",
		slog.Int64("run_id", run.ID),
		slog.String("solver_status", run.SolverStatus),
		slog.Float64("wall_time_sec", wallTime),
	)

	if outcome.Roster != nil {
		w.cacheRoster(run.ID, outcome.Roster)
	}
	w.notify(run, ds.Name)

	return false
}

// fail 把任务标记为失败，失败原因会记录在任务行上
func (w *worker) fail(runID int64, message string) {
	w.logger.Error("求解任务失败", slog.Int64("run_id", runID), slog.String("reason", message))
	if err := w.repo.FailSolveRun(runID, message); err != nil {
		w.logger.Error("无法标记任务失败", slog.Int64("run_id", runID), slog.String("error", err.Error()))
	}
}

// cacheRoster 把排班表写进 redis，供 API 查询时直接命中
// 写缓存失败只记录日志，结果已经入库，查询时会回源
func (w *worker) cacheRoster(runID int64, roster *domain.Roster) {
	data, err := json.Marshal(roster)
	if err != nil {
		w.logger.Error("序列化排班表失败", slog.Int64("run_id", runID), slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(w.cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	expiration := time.Duration(w.cfg.Redis.RosterExpiration) * time.Second
	if err := w.rdb.Set(ctx, domain.RosterCacheKey(runID), data, expiration).Err(); err != nil {
		w.logger.Error("写入排班表缓存失败", slog.Int64("run_id", runID), slog.String("error", err.Error()))
	}
}

// notify 给任务创建者发送求解结束的通知邮件
// 通知是尽力而为的：任何一步失败都只记录日志，不影响已经入库的结果
func (w *worker) notify(run *domain.SolveRun, datasetName string) {
	creator, err := w.repo.GetUserByID(run.CreatedBy)
	if err != nil {
		w.logger.Error("无法获取任务创建者信息", slog.Int64("run_id", run.ID), slog.String("error", err.Error()))
		return
	}

	objective := "无（没有可行解）"
	if run.Objective != nil {
		objective = fmt.Sprintf("%.4f", *run.Objective)
	}

	mailData := domain.RunFinishedMailData{
		FullName:     creator.FullName,
		DatasetName:  datasetName,
		RunID:        run.ID,
		Status:       string(run.Status),
		SolverStatus: run.SolverStatus,
		Objective:    objective,
	}

	msg := mail.NewMsg()
	if err := msg.From(w.cfg.Email.SMTP.Username); err != nil {
		w.logger.Error("无法设置邮件发件人", slog.String("error", err.Error()))
		return
	}
	if err := msg.To(creator.Email); err != nil {
		w.logger.Error("无法设置邮件收件人", slog.String("error", err.Error()))
		return
	}
	msg.Subject("护士排班系统 - 求解任务已结束")
	if err := msg.SetBodyHTMLTemplate(runFinishedTmpl, mailData); err != nil {
		w.logger.Error("无法设置邮件正文", slog.String("error", err.Error()))
		return
	}

	if err := w.mailClient.DialAndSend(msg); err != nil {
		w.logger.Error("通知邮件发送失败", slog.Int64("run_id", run.ID), slog.String("error", err.Error()))
	}
}
