package domain

import (
	"fmt"
	"time"
)

type RunStatus string

const (
	RunStatusQueued    RunStatus = "排队中"
	RunStatusRunning   RunStatus = "求解中"
	RunStatusSucceeded RunStatus = "已完成"
	RunStatusFailed    RunStatus = "已失败"
)

// Weights: 目标函数三个组成部分的权重
type Weights struct {
	Cost       float64 `json:"cost"`       // 值班代价权重
	Fairness   float64 `json:"fairness"`   // 超额工作量权重
	Preference float64 `json:"preference"` // 偏好惩罚权重
}

// AdjacencyRule: 禁止某天的班次与次日的班次连续出现，用于保证休息时间
type AdjacencyRule struct {
	FromShift int `json:"fromShift"` // 当天的班次
	ToShift   int `json:"toShift"`   // 次日的班次
}

// SolveRun: 一次求解任务
// 创建时进入排队状态，由 worker 认领执行；不可行、无界也算正常结束
type SolveRun struct {
	ID        int64           `json:"id"`
	DatasetID int64           `json:"datasetID"`
	Status    RunStatus       `json:"status"`
	Weights   Weights         `json:"weights"`
	Rules     []AdjacencyRule `json:"rules"`

	SolverStatus string     `json:"solverStatus"` // 求解状态（最优、不可行等），运行结束后填写
	Objective    *float64   `json:"objective"`    // 仅在存在可行解时非空
	WallTimeSec  *float64   `json:"wallTimeSec"`
	ErrorMessage string     `json:"errorMessage"`
	CreatedBy    int64      `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt"`
	Version      int32      `json:"-"`
}

// SolveQueueName 是 API 与 worker 共用的求解任务队列
const SolveQueueName = "solve_queue"

// SolveTask: 投递到求解队列的消息体，worker 收到后按 ID 认领任务
type SolveTask struct {
	RunID int64 `json:"runID"`
}

// RosterCacheKey 返回排班表在 redis 中的键
// worker 在任务完成后写入，API 查询排班表时优先读取
func RosterCacheKey(runID int64) string {
	return fmt.Sprintf("roster_run_%d", runID)
}

// Assignment: 排班表中的一条指派记录
type Assignment struct {
	ID         int64 `json:"id"`
	SolveRunID int64 `json:"solveRunID"`
	Day        int32 `json:"day"`
	Shift      int32 `json:"shift"`
	Nurse      int32 `json:"nurse"`
}

// RunKPI: 对一次求解结果的统计指标
type RunKPI struct {
	SolveRunID       int64   `json:"solveRunID"`
	TotalAssignments int32   `json:"totalAssignments"`
	MinWorkload      int32   `json:"minWorkload"`
	MaxWorkload      int32   `json:"maxWorkload"`
	TotalOverload    float64 `json:"totalOverload"`
	EmptyShiftSlots  int32   `json:"emptyShiftSlots"`
}
