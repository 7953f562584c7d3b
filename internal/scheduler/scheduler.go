package scheduler

import (
	"context"
	"fmt"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/maywin-dev/nurse-roster/backend/internal/utils"
)

// Scheduler 把排班数据变成 MILP 模型，交给外部求解器，再把解向量还原成排班表
type Scheduler struct {
	data   *ScheduleData
	params *Parameters
	solver Solver
}

// Outcome: 一次完整求解的结果
type Outcome struct {
	Status    Status
	Objective float64
	Roster    *domain.Roster // 仅在 Status.HasRoster() 为真时非 nil
}

// New 校验参数并构造 Scheduler
// params 为 nil 或权重全为零时使用默认权重，Rules 为 nil 时使用默认的夜班接早班规则
func New(data *ScheduleData, params *Parameters, sv Solver) (*Scheduler, error) {
	if data == nil {
		return nil, fmt.Errorf("排班数据不能为空")
	}
	if sv == nil {
		return nil, fmt.Errorf("缺少求解器实现")
	}

	p := Parameters{}
	if params != nil {
		p = *params
	}
	if p.Weights == (domain.Weights{}) {
		p.Weights = DefaultWeights()
	}
	if err := utils.ValidateWeights(p.Weights); err != nil {
		return nil, err
	}
	if p.Rules == nil {
		p.Rules = DefaultAdjacencyRules()
	}

	return &Scheduler{data: data, params: &p, solver: sv}, nil
}

// Run 依次执行建模、求解和解码
// 不可行、无界等状态不算错误，调用方通过 Outcome.Status 区分
func (s *Scheduler) Run(ctx context.Context) (*Outcome, error) {
	spec := BuildModel(s.data, s.params)

	sol, err := s.solver.Solve(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("提交模型求解失败: %w", err)
	}

	out := &Outcome{Status: sol.Status, Objective: sol.Objective}
	if !sol.Status.HasRoster() {
		return out, nil
	}

	roster, err := Decode(s.data, sol.Values)
	if err != nil {
		return nil, err
	}
	out.Roster = roster

	return out, nil
}

// Data 返回构造时传入的排班数据
func (s *Scheduler) Data() *ScheduleData { return s.data }
