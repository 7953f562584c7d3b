package solver

import (
	"context"

	"github.com/maywin-dev/nurse-roster/backend/internal/scheduler"
)

// Fake 是内存中的假求解器，用于在不依赖 HiGHS 的情况下测试建模和解码逻辑
// 它记录最近一次收到的模型，并原样返回事先设定的结果
type Fake struct {
	Solution *scheduler.Solution
	Err      error

	LastSpec *scheduler.ModelSpec
}

func (f *Fake) Solve(ctx context.Context, spec *scheduler.ModelSpec) (*scheduler.Solution, error) {
	f.LastSpec = spec
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Solution != nil {
		return f.Solution, nil
	}
	return &scheduler.Solution{Status: scheduler.StatusOther}, nil
}
