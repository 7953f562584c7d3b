package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/maywin-dev/nurse-roster/backend/internal/scheduler"
	"github.com/maywin-dev/nurse-roster/backend/internal/utils"
)

func (h *Handler) CreateSolveRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DatasetID int64                  `json:"datasetID" validate:"required,min=1"`
		Weights   *domain.Weights        `json:"weights"`
		Rules     []domain.AdjacencyRule `json:"rules"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 确认数据集存在
	if _, err := h.repository.GetDatasetByID(req.DatasetID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "数据集不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 入库前把权重和规则解析成实际生效的值，让任务记录能够自我描述
	// 优先级：请求中的权重 > 配置中的权重 > 内置默认值
	weights := domain.Weights{
		Cost:       h.config.Weights.Cost,
		Fairness:   h.config.Weights.Fairness,
		Preference: h.config.Weights.Preference,
	}
	if weights == (domain.Weights{}) {
		weights = scheduler.DefaultWeights()
	}
	if req.Weights != nil && *req.Weights != (domain.Weights{}) {
		weights = *req.Weights
	}
	if err := utils.ValidateWeights(weights); err != nil {
		h.badRequest(w, r, err)
		return
	}
	rules := req.Rules
	if rules == nil {
		rules = scheduler.DefaultAdjacencyRules()
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	run := &domain.SolveRun{
		DatasetID: req.DatasetID,
		Weights:   weights,
		Rules:     rules,
		CreatedBy: myInfo.ID,
	}

	if err := h.repository.CreateSolveRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 把任务投递到求解队列
	task, err := json.Marshal(domain.SolveTask{RunID: run.ID})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.solveChannel.PublishWithContext(
		ctx,
		"",
		domain.SolveQueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        task,
		},
	); err != nil {
		// 投递失败的任务永远不会被认领，直接标记失败
		_ = h.repository.FailSolveRun(run.ID, "任务投递到求解队列失败")
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "求解任务创建成功", run)
}

func (h *Handler) GetAllSolveRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repository.GetAllSolveRuns()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取求解任务列表成功", runs)
}

func (h *Handler) GetSolveRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SolveRunCtx).(*domain.SolveRun)
	h.successResponse(w, r, "获取求解任务成功", run)
}

// GetRunRoster 优先读取 redis 缓存，未命中时回源数据库并写回缓存
func (h *Handler) GetRunRoster(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SolveRunCtx).(*domain.SolveRun)
	key := domain.RosterCacheKey(run.ID)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if cached, err := h.redisClient.Get(ctx, key).Result(); err == nil {
		roster := &domain.Roster{}
		if err := json.Unmarshal([]byte(cached), roster); err == nil {
			h.successResponse(w, r, "获取排班表成功", roster)
			return
		}
		// 缓存内容损坏时当作未命中，回源后覆盖
	}

	roster, err := h.repository.GetRosterByRunID(run.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, rosterUnavailableMessage(run))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 写缓存失败不影响本次响应
	if data, err := json.Marshal(roster); err == nil {
		_ = h.redisClient.Set(ctx, key, data, time.Duration(h.config.Redis.RosterExpiration)*time.Second).Err()
	}

	h.successResponse(w, r, "获取排班表成功", roster)
}

func (h *Handler) GetRunAssignments(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SolveRunCtx).(*domain.SolveRun)

	assignments, err := h.repository.GetRunAssignments(run.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取指派记录成功", assignments)
}

func (h *Handler) GetRunKPI(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SolveRunCtx).(*domain.SolveRun)

	kpi, err := h.repository.GetRunKPI(run.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, rosterUnavailableMessage(run))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取统计指标成功", kpi)
}

// rosterUnavailableMessage 根据任务状态解释为什么拿不到排班表
func rosterUnavailableMessage(run *domain.SolveRun) string {
	switch run.Status {
	case domain.RunStatusQueued, domain.RunStatusRunning:
		return "求解尚未完成"
	case domain.RunStatusFailed:
		return "求解已失败"
	default:
		return fmt.Sprintf("该求解没有可行解（求解状态：%s）", run.SolverStatus)
	}
}
