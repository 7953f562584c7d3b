package scheduler

// Dims 定义了决策变量与扁平编号之间的双射
//
// 变量编号空间共 Nurses·Shifts·Days + Nurses 个：
// 前一段是全部 x 变量，按护士优先、班次次之、日期最次的顺序排列；
// 后一段是每名护士一个的 o 变量，紧跟在所有 x 之后。
// 约束生成依赖同一 (护士, 班次) 的日期编号连续这一性质，顺序不允许改动。
type Dims struct {
	Nurses int
	Shifts int
	Days   int
}

// XID 返回二元变量 x[nurse, shift, day] 的编号
func (m Dims) XID(nurse, shift, day int) int {
	return nurse*m.Shifts*m.Days + shift*m.Days + day
}

// OID 返回连续变量 o[nurse] 的编号
func (m Dims) OID(nurse int) int {
	return m.Nurses*m.Shifts*m.Days + nurse
}

// XCount 返回 x 变量的个数
func (m Dims) XCount() int {
	return m.Nurses * m.Shifts * m.Days
}

// VariableCount 返回变量总数（x 变量加 o 变量）
func (m Dims) VariableCount() int {
	return m.Nurses*m.Shifts*m.Days + m.Nurses
}
