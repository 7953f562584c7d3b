package solver

import (
	"context"
	"fmt"

	"github.com/bartolsthoorn/gohighs/highs"

	"github.com/maywin-dev/nurse-roster/backend/internal/scheduler"
)

// Options: 传给 HiGHS 的求解选项
type Options struct {
	TimeLimitSec float64 // 秒，不大于零表示不限制
	Threads      int     // 不大于零时由求解器自行决定
	MIPRelGap    float64 // 相对最优间隙，不大于零时使用求解器默认值
	Output       bool    // 是否打印求解日志
}

// HiGHS 是生产环境使用的求解器实现
type HiGHS struct {
	opts Options
}

func NewHiGHS(opts Options) *HiGHS {
	return &HiGHS{opts: opts}
}

// Solve 把模型转换成 HiGHS 的列和行表示并求解
// HiGHS 不支持中途取消，ctx 只在提交之前检查一次
func (h *HiGHS) Solve(ctx context.Context, spec *scheduler.ModelSpec) (*scheduler.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model := buildHighsModel(spec)

	opts := []highs.SolveOption{highs.WithOutput(h.opts.Output)}
	if h.opts.TimeLimitSec > 0 {
		opts = append(opts, highs.WithTimeLimit(h.opts.TimeLimitSec))
	}
	if h.opts.Threads > 0 {
		opts = append(opts, highs.WithThreads(h.opts.Threads))
	}
	if h.opts.MIPRelGap > 0 {
		opts = append(opts, highs.WithMIPRelGap(h.opts.MIPRelGap))
	}

	sol, err := model.Solve(opts...)
	if err != nil {
		return nil, fmt.Errorf("HiGHS 求解失败: %w", err)
	}

	return &scheduler.Solution{
		Status:    statusFromHighs(sol.Status),
		Objective: sol.Objective,
		Values:    sol.ColValues,
	}, nil
}

// buildHighsModel 把与求解器无关的模型映射成 HiGHS 的列和行
func buildHighsModel(spec *scheduler.ModelSpec) *highs.Model {
	model := &highs.Model{
		Maximize: !spec.Minimize,
		ColCosts: make([]float64, len(spec.Variables)),
		ColLower: make([]float64, len(spec.Variables)),
		ColUpper: make([]float64, len(spec.Variables)),
		VarTypes: make([]highs.VariableType, len(spec.Variables)),
		RowLower: make([]float64, 0, len(spec.Constraints)),
		RowUpper: make([]float64, 0, len(spec.Constraints)),
	}

	for i, v := range spec.Variables {
		model.ColCosts[i] = v.Cost
		model.ColLower[i] = v.Lower
		model.ColUpper[i] = v.Upper
		if v.Type == scheduler.VarBinary {
			model.VarTypes[i] = highs.Integer
		} else {
			model.VarTypes[i] = highs.Continuous
		}
	}

	for row, c := range spec.Constraints {
		lower, upper := rowBounds(c.Op, c.RHS)
		model.RowLower = append(model.RowLower, lower)
		model.RowUpper = append(model.RowUpper, upper)
		for _, t := range c.Terms {
			if t.Coef == 0 {
				continue
			}
			model.ConstMatrix = append(model.ConstMatrix, highs.Nonzero{Row: row, Col: t.Var, Val: t.Coef})
		}
	}

	return model
}

// rowBounds 把关系运算符和右端项翻译成 HiGHS 的行上下界
func rowBounds(op scheduler.RowOp, rhs float64) (float64, float64) {
	switch op {
	case scheduler.OpEq:
		return rhs, rhs
	case scheduler.OpLe:
		return highs.NegInf(), rhs
	default:
		return rhs, highs.Inf()
	}
}

// statusFromHighs 把 HiGHS 的模型状态翻译成核心的状态分类
func statusFromHighs(st highs.ModelStatus) scheduler.Status {
	switch {
	case st == highs.ModelStatusOptimal:
		return scheduler.StatusOptimal
	case st == highs.ModelStatusInfeasible:
		return scheduler.StatusInfeasible
	case st == highs.ModelStatusUnbounded || st == highs.ModelStatusUnboundedOrInfeasible:
		return scheduler.StatusUnbounded
	case st.HasSolution():
		// 到达时间或迭代限制但拿到了可行解
		return scheduler.StatusFeasible
	default:
		return scheduler.StatusOther
	}
}
