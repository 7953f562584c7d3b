package scheduler

import (
	"math"
	"testing"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
)

// evalConstraint 检查解向量是否满足单条约束
func evalConstraint(c Constraint, values []float64) bool {
	const eps = 1e-9
	sum := 0.0
	for _, term := range c.Terms {
		sum += term.Coef * values[term.Var]
	}
	switch c.Op {
	case OpEq:
		return math.Abs(sum-c.RHS) < eps
	case OpLe:
		return sum <= c.RHS+eps
	default:
		return sum >= c.RHS-eps
	}
}

// violatedRows 返回解向量违反的所有约束行号
func violatedRows(spec *ModelSpec, values []float64) []int {
	var rows []int
	for idx, c := range spec.Constraints {
		if !evalConstraint(c, values) {
			rows = append(rows, idx)
		}
	}
	return rows
}

func mustData(t *testing.T, in *Input) *ScheduleData {
	t.Helper()
	data, err := NewScheduleData(in)
	if err != nil {
		t.Fatalf("构造排班数据失败: %v", err)
	}
	return data
}

func TestBuildModelVariables(t *testing.T) {
	in := testInput(2, 2, 2)
	in.AssignCost[2][1] = 3.0  // 护士 1、班次 0、第 1 天
	in.Preference[1][0] = 0.25 // 护士 1 对班次 0 的偏好

	data := mustData(t, in)
	params := &Parameters{Weights: domain.Weights{Cost: 2.0, Fairness: 3.0, Preference: 4.0}}
	spec := BuildModel(data, params)

	dims := data.Dims()
	if len(spec.Variables) != dims.VariableCount() {
		t.Fatalf("变量个数 = %d, 应为 %d", len(spec.Variables), dims.VariableCount())
	}
	if !spec.Minimize {
		t.Error("目标方向应为最小化")
	}

	// x 变量：0/1，目标系数 = w1·代价 + w3·(1 − 偏好)
	v := spec.Variables[dims.XID(1, 0, 1)]
	if v.Type != VarBinary || v.Lower != 0 || v.Upper != 1 {
		t.Errorf("x 变量声明不符: %+v", v)
	}
	want := 2.0*3.0 + 4.0*(1-0.25)
	if !almostEqual(v.Cost, want, 1e-9) {
		t.Errorf("x 变量目标系数 = %g, 应为 %g", v.Cost, want)
	}

	// o 变量：非负连续，目标系数 = w2
	o := spec.Variables[dims.OID(1)]
	if o.Type != VarContinuous || o.Lower != 0 || !math.IsInf(o.Upper, 1) {
		t.Errorf("o 变量声明不符: %+v", o)
	}
	if !almostEqual(o.Cost, 3.0, 1e-9) {
		t.Errorf("o 变量目标系数 = %g, 应为 3", o.Cost)
	}
}

func TestBuildModelConstraintCounts(t *testing.T) {
	// 默认规则引用夜班（编号 2），只有班次数足够时才会生成约束四
	cases := []struct {
		nurses, shifts, days int
		restRows             int
	}{
		{3, 3, 4, 3 * 3}, // 夜班在范围内：护士数 × (天数-1)
		{2, 2, 2, 0},     // 只有两个班次，规则被跳过
	}

	for _, tc := range cases {
		data := mustData(t, testInput(tc.nurses, tc.shifts, tc.days))
		spec := BuildModel(data, &Parameters{Weights: DefaultWeights(), Rules: DefaultAdjacencyRules()})

		want := tc.shifts*tc.days + // 约束一：覆盖
			tc.nurses*tc.shifts*tc.days + // 约束二：空闲
			tc.nurses*tc.days + // 约束三：每天至多一个班次
			tc.restRows + // 约束四：相邻禁止组合
			2*tc.nurses + // 约束五：工作量上下限
			tc.nurses // 约束六：公平性
		if len(spec.Constraints) != want {
			t.Errorf("%d/%d/%d: 约束行数 = %d, 应为 %d", tc.nurses, tc.shifts, tc.days, len(spec.Constraints), want)
		}
	}
}

func TestBuildModelCoverageRows(t *testing.T) {
	in := testInput(3, 2, 2)
	in.Coverage[1][0] = 2
	data := mustData(t, in)
	dims := data.Dims()

	spec := BuildModel(data, &Parameters{Weights: DefaultWeights()})

	// 覆盖约束位于最前面，顺序为班次优先、日期次之
	row := spec.Constraints[1*data.DayCount()+0] // 班次 1、第 0 天
	if row.Op != OpEq || !almostEqual(row.RHS, 2, 1e-9) {
		t.Fatalf("覆盖约束行不符: %+v", row)
	}
	if len(row.Terms) != data.NurseCount() {
		t.Fatalf("覆盖约束应有 %d 项，实际 %d", data.NurseCount(), len(row.Terms))
	}
	for i, term := range row.Terms {
		if term.Var != dims.XID(i, 1, 0) || term.Coef != 1 {
			t.Errorf("覆盖约束第 %d 项不符: %+v", i, term)
		}
	}
}

func TestBuildModelRestRuleRows(t *testing.T) {
	data := mustData(t, testInput(2, 3, 3))
	dims := data.Dims()
	spec := BuildModel(data, &Parameters{Weights: DefaultWeights(), Rules: DefaultAdjacencyRules()})

	// 扫描所有符合 夜班(k) + 早班(k+1) ≤ 1 形状的行
	found := 0
	for _, c := range spec.Constraints {
		if c.Op != OpLe || len(c.Terms) != 2 || !almostEqual(c.RHS, 1, 1e-9) {
			continue
		}
		for i := 0; i < data.NurseCount(); i++ {
			for k := 0; k+1 < data.DayCount(); k++ {
				if c.Terms[0].Var == dims.XID(i, ShiftNight, k) && c.Terms[1].Var == dims.XID(i, ShiftMorning, k+1) {
					found++
				}
			}
		}
	}
	if want := data.NurseCount() * (data.DayCount() - 1); found != want {
		t.Errorf("休息约束行数 = %d, 应为 %d", found, want)
	}
}

func TestBuildModelSkipsOutOfRangeRules(t *testing.T) {
	data := mustData(t, testInput(2, 2, 3))
	params := &Parameters{
		Weights: DefaultWeights(),
		Rules: []domain.AdjacencyRule{
			{FromShift: 0, ToShift: 1},  // 在范围内
			{FromShift: 5, ToShift: 0},  // 超出班次数，应被跳过
			{FromShift: 0, ToShift: -1}, // 非法编号，应被跳过
		},
	}
	spec := BuildModel(data, params)

	want := 2*3 + 2*2*3 + 2*3 + 2*2 + 2*2 + 2 // 其中约束四只有一条规则生效：2 护士 × 2 个相邻日
	if len(spec.Constraints) != want {
		t.Errorf("约束行数 = %d, 应为 %d", len(spec.Constraints), want)
	}
}

func TestBuildModelWorkBoundsAndFairness(t *testing.T) {
	in := testInput(2, 2, 3)
	in.MinWork = []int{1, 2}
	in.MaxWork = []int{4, 5}
	data := mustData(t, in)
	dims := data.Dims()

	spec := BuildModel(data, &Parameters{Weights: DefaultWeights()})

	var upper, lower, fairness int
	for _, c := range spec.Constraints {
		// 工作量约束：某个护士的全部 x 变量，系数全为 1
		if len(c.Terms) == dims.Shifts*dims.Days && c.Terms[0].Coef == 1 {
			nurse := c.Terms[0].Var / (dims.Shifts * dims.Days)
			switch c.Op {
			case OpLe:
				upper++
				if !almostEqual(c.RHS, float64(data.MaxWork(nurse)), 1e-9) {
					t.Errorf("护士 %d 的上限约束 RHS = %g", nurse, c.RHS)
				}
			case OpGe:
				lower++
				if !almostEqual(c.RHS, float64(data.MinWork(nurse)), 1e-9) {
					t.Errorf("护士 %d 的下限约束 RHS = %g", nurse, c.RHS)
				}
			}
		}

		// 公平性约束：某个护士的全部 x 变量加上一项系数为 -1 的 o 变量
		if len(c.Terms) == dims.Shifts*dims.Days+1 {
			last := c.Terms[len(c.Terms)-1]
			if last.Coef != -1 {
				continue
			}
			fairness++
			nurse := c.Terms[0].Var / (dims.Shifts * dims.Days)
			if last.Var != dims.OID(nurse) {
				t.Errorf("护士 %d 的公平性约束引用了错误的 o 变量: %+v", nurse, last)
			}
			if c.Op != OpLe || !almostEqual(c.RHS, data.AverageWorkTarget(), 1e-9) {
				t.Errorf("公平性约束不符: op=%d rhs=%g", c.Op, c.RHS)
			}
		}
	}

	if upper != data.NurseCount() || lower != data.NurseCount() {
		t.Errorf("工作量约束行数 = %d/%d, 应为各 %d", upper, lower, data.NurseCount())
	}
	if fairness != data.NurseCount() {
		t.Errorf("公平性约束行数 = %d, 应为 %d", fairness, data.NurseCount())
	}
}

// 两名护士、一个班次、两天，每天需要一人：满足全部约束的解必须每天恰好安排一人
func TestModelAcceptsExactCoverage(t *testing.T) {
	in := testInput(2, 1, 2)
	data := mustData(t, in)
	dims := data.Dims()
	spec := BuildModel(data, &Parameters{Weights: DefaultWeights()})

	values := make([]float64, dims.VariableCount())
	values[dims.XID(0, 0, 0)] = 1
	values[dims.XID(1, 0, 1)] = 1
	if rows := violatedRows(spec, values); len(rows) != 0 {
		t.Errorf("合法排班被判违反约束: %v", rows)
	}

	// 两人都排在第 0 天：两天的覆盖约束都被违反
	bad := make([]float64, dims.VariableCount())
	bad[dims.XID(0, 0, 0)] = 1
	bad[dims.XID(1, 0, 0)] = 1
	if rows := violatedRows(spec, bad); len(rows) == 0 {
		t.Error("覆盖不符的排班未被判违反约束")
	}
}

// 需求超过护士数时，覆盖约束在任何 0/1 组合下都无法满足
func TestModelOverDemandAlwaysViolated(t *testing.T) {
	in := testInput(2, 1, 1)
	in.Coverage[0][0] = 5
	data := mustData(t, in)
	dims := data.Dims()
	spec := BuildModel(data, &Parameters{Weights: DefaultWeights()})

	for mask := 0; mask < 4; mask++ {
		values := make([]float64, dims.VariableCount())
		values[dims.XID(0, 0, 0)] = float64(mask & 1)
		values[dims.XID(1, 0, 0)] = float64(mask >> 1)
		if rows := violatedRows(spec, values); len(rows) == 0 {
			t.Fatalf("需求为 5 时组合 %02b 不应满足约束", mask)
		}
	}
}

// 全天没空的护士不允许获得任何排班
func TestModelUnavailableNurseBlocked(t *testing.T) {
	in := testInput(2, 1, 2)
	for k := 0; k < 2; k++ {
		in.Availability[0][k] = 0
	}
	data := mustData(t, in)
	dims := data.Dims()
	spec := BuildModel(data, &Parameters{Weights: DefaultWeights()})

	// 护士 1 包揽两天：工作量 2 超出平均值 1，o[1] 至少为 1
	values := make([]float64, dims.VariableCount())
	values[dims.XID(1, 0, 0)] = 1
	values[dims.XID(1, 0, 1)] = 1
	values[dims.OID(1)] = 1
	if rows := violatedRows(spec, values); len(rows) != 0 {
		t.Errorf("合法排班被判违反约束: %v", rows)
	}

	// 任何安排给护士 0 的班次都会违反空闲约束
	values[dims.XID(0, 0, 0)] = 1
	if rows := violatedRows(spec, values); len(rows) == 0 {
		t.Error("没空的护士被安排后未被判违反约束")
	}
}

// 夜班接次日早班必须违反休息约束，并且只违反这一条
func TestModelRestRuleForbidsNightThenMorning(t *testing.T) {
	in := testInput(1, 3, 2)
	for j := 0; j < 3; j++ {
		for k := 0; k < 2; k++ {
			in.Coverage[j][k] = 0
		}
	}
	in.Coverage[ShiftNight][0] = 1
	in.Coverage[ShiftMorning][1] = 1
	data := mustData(t, in)
	dims := data.Dims()
	spec := BuildModel(data, &Parameters{Weights: DefaultWeights(), Rules: DefaultAdjacencyRules()})

	values := make([]float64, dims.VariableCount())
	values[dims.XID(0, ShiftNight, 0)] = 1
	values[dims.XID(0, ShiftMorning, 1)] = 1

	rows := violatedRows(spec, values)
	if len(rows) != 1 {
		t.Fatalf("违反的约束行 = %v, 应恰好一条", rows)
	}
	c := spec.Constraints[rows[0]]
	if len(c.Terms) != 2 || c.Terms[0].Var != dims.XID(0, ShiftNight, 0) || c.Terms[1].Var != dims.XID(0, ShiftMorning, 1) {
		t.Errorf("违反的不是休息约束: %+v", c)
	}
}
