package solver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/bartolsthoorn/gohighs/highs"

	"github.com/maywin-dev/nurse-roster/backend/internal/scheduler"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBuildHighsModel(t *testing.T) {
	spec := &scheduler.ModelSpec{
		Minimize: true,
		Variables: []scheduler.Variable{
			{Type: scheduler.VarBinary, Lower: 0, Upper: 1, Cost: 7},
			{Type: scheduler.VarContinuous, Lower: 0, Upper: math.Inf(1), Cost: 8},
		},
		Constraints: []scheduler.Constraint{
			{Terms: []scheduler.Term{{Var: 0, Coef: 1}}, Op: scheduler.OpEq, RHS: 2},
			{Terms: []scheduler.Term{{Var: 0, Coef: 1}, {Var: 1, Coef: -1}}, Op: scheduler.OpLe, RHS: 3},
			{Terms: []scheduler.Term{{Var: 0, Coef: 0}, {Var: 1, Coef: 1}}, Op: scheduler.OpGe, RHS: 1},
		},
	}

	model := buildHighsModel(spec)

	if model.Maximize {
		t.Error("最小化模型不应设置 Maximize")
	}
	if len(model.ColCosts) != 2 || model.ColCosts[0] != 7 || model.ColCosts[1] != 8 {
		t.Errorf("目标系数 = %v", model.ColCosts)
	}
	if model.VarTypes[0] != highs.Integer || model.VarTypes[1] != highs.Continuous {
		t.Errorf("变量类型 = %v", model.VarTypes)
	}
	if model.ColLower[0] != 0 || model.ColUpper[0] != 1 {
		t.Errorf("0/1 变量边界 = [%g, %g]", model.ColLower[0], model.ColUpper[0])
	}
	if !math.IsInf(model.ColUpper[1], 1) {
		t.Errorf("连续变量上界 = %g", model.ColUpper[1])
	}

	// 等式行：上下界都等于右端项
	if model.RowLower[0] != 2 || model.RowUpper[0] != 2 {
		t.Errorf("等式行边界 = [%g, %g]", model.RowLower[0], model.RowUpper[0])
	}
	// ≤ 行：下界为负无穷
	if model.RowLower[1] != highs.NegInf() || model.RowUpper[1] != 3 {
		t.Errorf("≤ 行边界 = [%g, %g]", model.RowLower[1], model.RowUpper[1])
	}
	// ≥ 行：上界为正无穷
	if model.RowLower[2] != 1 || model.RowUpper[2] != highs.Inf() {
		t.Errorf("≥ 行边界 = [%g, %g]", model.RowLower[2], model.RowUpper[2])
	}

	// 系数为零的项不进入稀疏矩阵
	want := []highs.Nonzero{
		{Row: 0, Col: 0, Val: 1},
		{Row: 1, Col: 0, Val: 1},
		{Row: 1, Col: 1, Val: -1},
		{Row: 2, Col: 1, Val: 1},
	}
	if len(model.ConstMatrix) != len(want) {
		t.Fatalf("稀疏矩阵非零项数 = %d, 应为 %d", len(model.ConstMatrix), len(want))
	}
	for i, nz := range want {
		if model.ConstMatrix[i] != nz {
			t.Errorf("第 %d 个非零项 = %+v, 应为 %+v", i, model.ConstMatrix[i], nz)
		}
	}
}

func TestStatusFromHighs(t *testing.T) {
	cases := []struct {
		in   highs.ModelStatus
		want scheduler.Status
	}{
		{highs.ModelStatusOptimal, scheduler.StatusOptimal},
		{highs.ModelStatusInfeasible, scheduler.StatusInfeasible},
		{highs.ModelStatusUnbounded, scheduler.StatusUnbounded},
		{highs.ModelStatusUnboundedOrInfeasible, scheduler.StatusUnbounded},
		{highs.ModelStatusTimeLimit, scheduler.StatusFeasible},
		{highs.ModelStatusIterationLimit, scheduler.StatusFeasible},
		{highs.ModelStatusObjectiveBound, scheduler.StatusFeasible},
		{highs.ModelStatusNotSet, scheduler.StatusOther},
		{highs.ModelStatusSolveError, scheduler.StatusOther},
		{highs.ModelStatusUnknown, scheduler.StatusOther},
	}
	for _, tc := range cases {
		if got := statusFromHighs(tc.in); got != tc.want {
			t.Errorf("statusFromHighs(%v) = %v, 应为 %v", tc.in, got, tc.want)
		}
	}
}

// 上下文已取消时直接返回，不会把模型提交给求解器
func TestHiGHSSolveCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewHiGHS(Options{})
	_, err := h.Solve(ctx, &scheduler.ModelSpec{Minimize: true})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, 应为 context.Canceled", err)
	}
}

func TestFakeRecordsSpec(t *testing.T) {
	spec := &scheduler.ModelSpec{Minimize: true}
	f := &Fake{Solution: &scheduler.Solution{Status: scheduler.StatusOptimal, Objective: 1.5}}

	sol, err := f.Solve(context.Background(), spec)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if f.LastSpec != spec {
		t.Error("Fake 应记录收到的模型")
	}
	if sol.Status != scheduler.StatusOptimal || !almostEqual(sol.Objective, 1.5, 1e-9) {
		t.Errorf("返回结果不符: %+v", sol)
	}

	f = &Fake{Err: errors.New("boom")}
	if _, err := f.Solve(context.Background(), spec); err == nil {
		t.Error("设定了错误时应返回错误")
	}

	f = &Fake{}
	sol, err = f.Solve(context.Background(), spec)
	if err != nil || sol.Status != scheduler.StatusOther {
		t.Errorf("未设定结果时应返回未知状态: %+v, %v", sol, err)
	}
}
