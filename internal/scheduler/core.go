package scheduler

import "math"

// BuildModel 根据排班数据生成完整的 MILP 模型
// 先按编号顺序声明全部变量，再依次生成六类约束；目标方向固定为最小化
func BuildModel(data *ScheduleData, params *Parameters) *ModelSpec {
	dims := data.Dims()
	w := params.Weights

	spec := &ModelSpec{
		Minimize:  true,
		Variables: make([]Variable, 0, dims.VariableCount()),
	}

	// x[i,j,k]: 护士 i 在第 k 天值班次 j
	// 声明顺序必须与 Dims.XID 的编号一致
	for i := 0; i < data.NurseCount(); i++ {
		for j := 0; j < data.ShiftCount(); j++ {
			for k := 0; k < data.DayCount(); k++ {
				spec.addVariable(Variable{
					Type:  VarBinary,
					Lower: 0,
					Upper: 1,
					Cost:  w.Cost*data.Cost(i, j, k) + w.Preference*(1-data.Preference(i, j)),
				})
			}
		}
	}

	// o[i]: 护士 i 超出平均工作量的部分
	for i := 0; i < data.NurseCount(); i++ {
		spec.addVariable(Variable{
			Type:  VarContinuous,
			Lower: 0,
			Upper: math.Inf(1),
			Cost:  w.Fairness,
		})
	}

	// 约束一：每个 (班次, 日期) 的当班人数恰好等于需求
	for j := 0; j < data.ShiftCount(); j++ {
		for k := 0; k < data.DayCount(); k++ {
			terms := make([]Term, 0, data.NurseCount())
			for i := 0; i < data.NurseCount(); i++ {
				terms = append(terms, Term{Var: dims.XID(i, j, k), Coef: 1})
			}
			spec.addConstraint(terms, OpEq, float64(data.Coverage(j, k)))
		}
	}

	// 约束二：没空的日期不允许安排任何班次
	for i := 0; i < data.NurseCount(); i++ {
		for j := 0; j < data.ShiftCount(); j++ {
			for k := 0; k < data.DayCount(); k++ {
				terms := []Term{{Var: dims.XID(i, j, k), Coef: 1}}
				spec.addConstraint(terms, OpLe, float64(data.Availability(i, k)))
			}
		}
	}

	// 约束三：每人每天至多一个班次
	for i := 0; i < data.NurseCount(); i++ {
		for k := 0; k < data.DayCount(); k++ {
			terms := make([]Term, 0, data.ShiftCount())
			for j := 0; j < data.ShiftCount(); j++ {
				terms = append(terms, Term{Var: dims.XID(i, j, k), Coef: 1})
			}
			spec.addConstraint(terms, OpLe, 1)
		}
	}

	// 约束四：相邻两天的禁止组合（默认夜班接次日早班）
	// 规则引用的班次超出范围时跳过该条规则
	for _, rule := range params.Rules {
		if rule.FromShift < 0 || rule.FromShift >= data.ShiftCount() {
			continue
		}
		if rule.ToShift < 0 || rule.ToShift >= data.ShiftCount() {
			continue
		}
		for i := 0; i < data.NurseCount(); i++ {
			for k := 0; k+1 < data.DayCount(); k++ {
				terms := []Term{
					{Var: dims.XID(i, rule.FromShift, k), Coef: 1},
					{Var: dims.XID(i, rule.ToShift, k+1), Coef: 1},
				}
				spec.addConstraint(terms, OpLe, 1)
			}
		}
	}

	// 约束五：总工作量位于个人上下限之间
	for i := 0; i < data.NurseCount(); i++ {
		spec.addConstraint(nurseWorkTerms(dims, i), OpLe, float64(data.MaxWork(i)))
		spec.addConstraint(nurseWorkTerms(dims, i), OpGe, float64(data.MinWork(i)))
	}

	// 约束六：超出平均工作量的部分全部压入 o 变量
	for i := 0; i < data.NurseCount(); i++ {
		terms := append(nurseWorkTerms(dims, i), Term{Var: dims.OID(i), Coef: -1})
		spec.addConstraint(terms, OpLe, data.AverageWorkTarget())
	}

	return spec
}

// nurseWorkTerms 返回护士 nurse 所有 x 变量组成的求和项
// 每次调用都会分配新的切片，同一份不会被两条约束共用
func nurseWorkTerms(dims Dims, nurse int) []Term {
	terms := make([]Term, 0, dims.Shifts*dims.Days+1)
	for j := 0; j < dims.Shifts; j++ {
		for k := 0; k < dims.Days; k++ {
			terms = append(terms, Term{Var: dims.XID(nurse, j, k), Coef: 1})
		}
	}
	return terms
}
