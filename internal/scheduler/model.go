package scheduler

import (
	"context"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
)

// 默认的班次编号约定：0 为早班，2 为夜班
const (
	ShiftMorning = 0
	ShiftNight   = 2
)

// VarType: 决策变量的类型
type VarType int8

const (
	VarBinary     VarType = iota // 0/1 变量
	VarContinuous                // 非负连续变量
)

// RowOp: 约束行的关系运算符
type RowOp int8

const (
	OpEq RowOp = iota // 等于
	OpLe              // 小于等于
	OpGe              // 大于等于
)

// Variable: 单个决策变量的声明
type Variable struct {
	Type  VarType
	Lower float64
	Upper float64
	Cost  float64 // 目标函数系数
}

// Term: 约束行中的一项
type Term struct {
	Var  int
	Coef float64
}

// Constraint: 一条线性约束
type Constraint struct {
	Terms []Term
	Op    RowOp
	RHS   float64
}

// ModelSpec: 与具体求解器无关的完整模型
// 构建过程中只允许追加，已追加的变量和约束不允许再修改
type ModelSpec struct {
	Minimize    bool
	Variables   []Variable
	Constraints []Constraint
}

func (m *ModelSpec) addVariable(v Variable) {
	m.Variables = append(m.Variables, v)
}

func (m *ModelSpec) addConstraint(terms []Term, op RowOp, rhs float64) {
	m.Constraints = append(m.Constraints, Constraint{Terms: terms, Op: op, RHS: rhs})
}

// DefaultWeights 返回默认权重
func DefaultWeights() domain.Weights {
	return domain.Weights{Cost: 5.0, Fairness: 8.0, Preference: 6.0}
}

// DefaultAdjacencyRules 默认只禁止夜班接次日早班
func DefaultAdjacencyRules() []domain.AdjacencyRule {
	return []domain.AdjacencyRule{{FromShift: ShiftNight, ToShift: ShiftMorning}}
}

// Parameters: 控制模型生成的可调参数
type Parameters struct {
	Weights domain.Weights         // 全为零时使用默认权重
	Rules   []domain.AdjacencyRule // 相邻两天的禁止组合，为 nil 时使用默认规则
}

// Status: 求解结束后的状态
type Status int8

const (
	StatusOptimal    Status = iota // 最优
	StatusFeasible                 // 次优但可行（例如达到时间限制）
	StatusInfeasible               // 不可行
	StatusUnbounded                // 无界
	StatusOther                    // 其他（求解器未给出可用的结论）
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "最优"
	case StatusFeasible:
		return "次优可行"
	case StatusInfeasible:
		return "不可行"
	case StatusUnbounded:
		return "无界"
	default:
		return "未知"
	}
}

// HasRoster 返回该状态下解向量是否可以解码成排班表
func (s Status) HasRoster() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Solution: 求解器返回的原始结果
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64 // 按变量编号索引的解向量
}

// Solver 是外部 MILP 求解能力的边界
// 生产实现基于 HiGHS，测试中使用内存中的假实现
type Solver interface {
	Solve(ctx context.Context, spec *ModelSpec) (*Solution, error)
}
