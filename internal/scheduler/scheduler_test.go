package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
)

// stubSolver 记录收到的模型并返回预先写好的结果
type stubSolver struct {
	solution *Solution
	err      error
	lastSpec *ModelSpec
}

func (s *stubSolver) Solve(_ context.Context, spec *ModelSpec) (*Solution, error) {
	s.lastSpec = spec
	if s.err != nil {
		return nil, s.err
	}
	return s.solution, nil
}

func TestNewValidation(t *testing.T) {
	data := mustData(t, testInput(2, 2, 2))
	sv := &stubSolver{}

	if _, err := New(nil, nil, sv); err == nil {
		t.Error("排班数据为空时应返回错误")
	}
	if _, err := New(data, nil, nil); err == nil {
		t.Error("求解器为空时应返回错误")
	}
	if _, err := New(data, &Parameters{Weights: domain.Weights{Cost: -1}}, sv); err == nil {
		t.Error("负权重应返回错误")
	}
	if _, err := New(data, nil, sv); err != nil {
		t.Errorf("默认参数不应返回错误: %v", err)
	}
}

// 权重全为零视为未设置，应回落到默认权重
func TestNewZeroWeightsUseDefaults(t *testing.T) {
	in := testInput(1, 1, 1)
	in.AssignCost[0][0] = 1.0
	in.Preference[0][0] = 0.0
	data := mustData(t, in)
	sv := &stubSolver{solution: &Solution{Status: StatusInfeasible}}

	s, err := New(data, &Parameters{}, sv)
	if err != nil {
		t.Fatalf("构造失败: %v", err)
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	dims := data.Dims()
	w := DefaultWeights()
	x := sv.lastSpec.Variables[dims.XID(0, 0, 0)]
	if !almostEqual(x.Cost, w.Cost*1.0+w.Preference*1.0, 1e-9) {
		t.Errorf("x 变量目标系数 = %g, 应使用默认权重", x.Cost)
	}
	o := sv.lastSpec.Variables[dims.OID(0)]
	if !almostEqual(o.Cost, w.Fairness, 1e-9) {
		t.Errorf("o 变量目标系数 = %g, 应为默认公平权重", o.Cost)
	}
}

func TestRunDecodesOptimal(t *testing.T) {
	data := mustData(t, testInput(2, 1, 2))
	dims := data.Dims()

	values := make([]float64, dims.VariableCount())
	values[dims.XID(0, 0, 0)] = 1
	values[dims.XID(1, 0, 1)] = 1
	values[dims.OID(0)] = 0.5
	sv := &stubSolver{solution: &Solution{Status: StatusOptimal, Objective: 12.5, Values: values}}

	s, err := New(data, nil, sv)
	if err != nil {
		t.Fatalf("构造失败: %v", err)
	}
	out, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	if out.Status != StatusOptimal {
		t.Errorf("状态 = %v", out.Status)
	}
	if !almostEqual(out.Objective, 12.5, 1e-9) {
		t.Errorf("目标值 = %g", out.Objective)
	}
	if out.Roster == nil {
		t.Fatal("最优状态下应返回排班表")
	}
	if got := out.Roster.Days[0].Shifts[0].Nurses; len(got) != 1 || got[0] != 0 {
		t.Errorf("第 0 天当班护士 = %v", got)
	}
	if !almostEqual(out.Roster.Overload[0], 0.5, 1e-9) {
		t.Errorf("护士 0 的超额工作量 = %g", out.Roster.Overload[0])
	}
}

// 次优可行解同样需要解码
func TestRunDecodesFeasible(t *testing.T) {
	data := mustData(t, testInput(1, 1, 1))
	values := make([]float64, data.Dims().VariableCount())
	values[0] = 1
	sv := &stubSolver{solution: &Solution{Status: StatusFeasible, Objective: 3, Values: values}}

	s, _ := New(data, nil, sv)
	out, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if out.Status != StatusFeasible || out.Roster == nil {
		t.Errorf("次优可行解未被解码: status=%v roster=%v", out.Status, out.Roster)
	}
}

// 模型不可行不算错误：只返回状态，不返回排班表
func TestRunInfeasible(t *testing.T) {
	data := mustData(t, testInput(2, 1, 2))
	sv := &stubSolver{solution: &Solution{Status: StatusInfeasible}}

	s, _ := New(data, nil, sv)
	out, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("不可行状态不应作为错误返回: %v", err)
	}
	if out.Status != StatusInfeasible {
		t.Errorf("状态 = %v", out.Status)
	}
	if out.Roster != nil {
		t.Error("不可行时不应返回排班表")
	}
}

func TestRunSolverError(t *testing.T) {
	data := mustData(t, testInput(1, 1, 1))
	cause := errors.New("连接中断")
	sv := &stubSolver{err: cause}

	s, _ := New(data, nil, sv)
	_, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("求解器出错时应返回错误")
	}
	if !errors.Is(err, cause) {
		t.Errorf("错误链中应包含原始错误: %v", err)
	}
	if !strings.Contains(err.Error(), "求解失败") {
		t.Errorf("错误信息不符: %v", err)
	}
}

func TestRunBadSolutionVector(t *testing.T) {
	data := mustData(t, testInput(2, 1, 2))
	sv := &stubSolver{solution: &Solution{Status: StatusOptimal, Values: []float64{1}}}

	s, _ := New(data, nil, sv)
	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("解向量长度不符时应返回错误")
	}
}

// 同一份数据和参数生成的模型必须逐位一致
func TestBuildModelDeterministic(t *testing.T) {
	data := mustData(t, testInput(3, 3, 4))
	params := &Parameters{Weights: DefaultWeights(), Rules: DefaultAdjacencyRules()}

	a := BuildModel(data, params)
	b := BuildModel(data, params)

	if len(a.Variables) != len(b.Variables) || len(a.Constraints) != len(b.Constraints) {
		t.Fatalf("两次生成的模型规模不一致")
	}
	for idx := range a.Variables {
		if a.Variables[idx] != b.Variables[idx] {
			t.Fatalf("第 %d 个变量不一致: %+v vs %+v", idx, a.Variables[idx], b.Variables[idx])
		}
	}
	for idx := range a.Constraints {
		ca, cb := a.Constraints[idx], b.Constraints[idx]
		if ca.Op != cb.Op || ca.RHS != cb.RHS || len(ca.Terms) != len(cb.Terms) {
			t.Fatalf("第 %d 条约束不一致", idx)
		}
		for ti := range ca.Terms {
			if ca.Terms[ti] != cb.Terms[ti] {
				t.Fatalf("第 %d 条约束第 %d 项不一致", idx, ti)
			}
		}
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		StatusOptimal:    "最优",
		StatusFeasible:   "次优可行",
		StatusInfeasible: "不可行",
		StatusUnbounded:  "无界",
		StatusOther:      "未知",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("%d 的描述 = %q, 应为 %q", status, got, want)
		}
	}
	if StatusInfeasible.HasRoster() || StatusUnbounded.HasRoster() || StatusOther.HasRoster() {
		t.Error("不可行、无界和未知状态都不应产生排班表")
	}
	if !StatusOptimal.HasRoster() || !StatusFeasible.HasRoster() {
		t.Error("最优和次优可行状态应产生排班表")
	}
}
