package scheduler

import (
	"fmt"
)

// ScheduleData 是排班问题的全部输入数据
// 加载完成之后不可再修改，构建模型和解码时只读
type ScheduleData struct {
	nurseCount int
	shiftCount int
	dayCount   int

	// 所有矩阵都存放在连续缓冲区中，通过步长计算偏移
	availability []int     // nurseCount × dayCount，取值 0/1
	coverage     []int     // shiftCount × dayCount
	assignCost   []float64 // nurseCount × shiftCount × dayCount，与 x 变量编号顺序一致
	preference   []float64 // nurseCount × shiftCount，取值 [0, 1]
	minWork      []int     // nurseCount
	maxWork      []int     // nurseCount

	averageWorkTarget float64 // 总需求 / 护士数，由 coverage 推导，不允许外部输入
}

// Input 是构造 ScheduleData 的原始矩阵
// 行列布局与外部数据源一一对应
type Input struct {
	NurseCount int
	ShiftCount int
	DayCount   int

	Availability [][]int     // nurseCount 行 × dayCount 列
	Coverage     [][]int     // shiftCount 行 × dayCount 列
	AssignCost   [][]float64 // nurseCount·shiftCount 行 × dayCount 列，护士优先、班次次之
	Preference   [][]float64 // nurseCount 行 × shiftCount 列
	MinWork      []int       // nurseCount
	MaxWork      []int       // nurseCount
}

// NewScheduleData 校验输入矩阵的形状和取值范围，并构造不可变的排班数据
// 形状不符或取值非法都会直接返回错误，不会产生部分可用的数据
func NewScheduleData(in *Input) (*ScheduleData, error) {
	if in.NurseCount <= 0 || in.ShiftCount <= 0 || in.DayCount <= 0 {
		return nil, fmt.Errorf("问题规模必须为正数（护士 %d、班次 %d、天数 %d）", in.NurseCount, in.ShiftCount, in.DayCount)
	}

	d := &ScheduleData{
		nurseCount: in.NurseCount,
		shiftCount: in.ShiftCount,
		dayCount:   in.DayCount,
	}

	var err error
	if d.availability, err = flattenIntMatrix("availability", in.Availability, in.NurseCount, in.DayCount); err != nil {
		return nil, err
	}
	if d.coverage, err = flattenIntMatrix("coverage", in.Coverage, in.ShiftCount, in.DayCount); err != nil {
		return nil, err
	}
	if d.assignCost, err = flattenFloatMatrix("assign_cost", in.AssignCost, in.NurseCount*in.ShiftCount, in.DayCount); err != nil {
		return nil, err
	}
	if d.preference, err = flattenFloatMatrix("preference", in.Preference, in.NurseCount, in.ShiftCount); err != nil {
		return nil, err
	}

	if len(in.MinWork) != in.NurseCount || len(in.MaxWork) != in.NurseCount {
		return nil, &ShapeError{Source: "work_bounds", WantRows: in.NurseCount, GotRows: max(len(in.MinWork), len(in.MaxWork))}
	}
	d.minWork = make([]int, in.NurseCount)
	d.maxWork = make([]int, in.NurseCount)
	copy(d.minWork, in.MinWork)
	copy(d.maxWork, in.MaxWork)

	// 取值范围校验
	for i := 0; i < d.nurseCount; i++ {
		for k := 0; k < d.dayCount; k++ {
			if v := d.availability[i*d.dayCount+k]; v != 0 && v != 1 {
				return nil, fmt.Errorf("availability: 护士 %d 第 %d 天取值 %d，只允许 0 或 1", i, k, v)
			}
		}
	}
	for j := 0; j < d.shiftCount; j++ {
		for k := 0; k < d.dayCount; k++ {
			if v := d.coverage[j*d.dayCount+k]; v < 0 {
				return nil, fmt.Errorf("coverage: 班次 %d 第 %d 天需求 %d，不允许为负", j, k, v)
			}
		}
	}
	for idx, v := range d.assignCost {
		if v < 0 {
			return nil, fmt.Errorf("assign_cost: 第 %d 个代价为 %g，不允许为负", idx, v)
		}
	}
	for i := 0; i < d.nurseCount; i++ {
		for j := 0; j < d.shiftCount; j++ {
			if v := d.preference[i*d.shiftCount+j]; v < 0 || v > 1 {
				return nil, fmt.Errorf("preference: 护士 %d 班次 %d 偏好 %g，必须位于 [0, 1]", i, j, v)
			}
		}
	}
	for i := 0; i < d.nurseCount; i++ {
		if d.minWork[i] < 0 || d.maxWork[i] < 0 {
			return nil, fmt.Errorf("work_bounds: 护士 %d 的上下限不允许为负", i)
		}
		if d.minWork[i] > d.maxWork[i] {
			return nil, fmt.Errorf("work_bounds: 护士 %d 的下限 %d 大于上限 %d", i, d.minWork[i], d.maxWork[i])
		}
	}

	d.averageWorkTarget = float64(d.TotalCoverage()) / float64(d.nurseCount)

	return d, nil
}

// flattenIntMatrix 把二维矩阵按行拷入连续缓冲区，同时检查形状
func flattenIntMatrix(source string, m [][]int, rows, cols int) ([]int, error) {
	if len(m) != rows {
		return nil, &ShapeError{Source: source, WantRows: rows, WantCols: cols, GotRows: len(m)}
	}
	buf := make([]int, rows*cols)
	for r, row := range m {
		if len(row) != cols {
			return nil, &ShapeError{Source: source, WantRows: rows, WantCols: cols, GotRows: rows, GotCols: len(row), Row: r + 1}
		}
		copy(buf[r*cols:], row)
	}
	return buf, nil
}

func flattenFloatMatrix(source string, m [][]float64, rows, cols int) ([]float64, error) {
	if len(m) != rows {
		return nil, &ShapeError{Source: source, WantRows: rows, WantCols: cols, GotRows: len(m)}
	}
	buf := make([]float64, rows*cols)
	for r, row := range m {
		if len(row) != cols {
			return nil, &ShapeError{Source: source, WantRows: rows, WantCols: cols, GotRows: rows, GotCols: len(row), Row: r + 1}
		}
		copy(buf[r*cols:], row)
	}
	return buf, nil
}

func (d *ScheduleData) NurseCount() int { return d.nurseCount }
func (d *ScheduleData) ShiftCount() int { return d.shiftCount }
func (d *ScheduleData) DayCount() int   { return d.dayCount }

// Dims 返回变量编号映射所需的三个维度
func (d *ScheduleData) Dims() Dims {
	return Dims{Nurses: d.nurseCount, Shifts: d.shiftCount, Days: d.dayCount}
}

// Availability 返回护士 nurse 在第 day 天是否可以上班（0/1，与班次无关）
func (d *ScheduleData) Availability(nurse, day int) int {
	mustIndex("护士", nurse, d.nurseCount)
	mustIndex("日期", day, d.dayCount)
	return d.availability[nurse*d.dayCount+day]
}

// Coverage 返回班次 shift 在第 day 天需要的护士人数
func (d *ScheduleData) Coverage(shift, day int) int {
	mustIndex("班次", shift, d.shiftCount)
	mustIndex("日期", day, d.dayCount)
	return d.coverage[shift*d.dayCount+day]
}

// Cost 返回护士 nurse 在第 day 天值班次 shift 的代价
func (d *ScheduleData) Cost(nurse, shift, day int) float64 {
	mustIndex("护士", nurse, d.nurseCount)
	mustIndex("班次", shift, d.shiftCount)
	mustIndex("日期", day, d.dayCount)
	return d.assignCost[(nurse*d.shiftCount+shift)*d.dayCount+day]
}

// Preference 返回护士 nurse 对班次 shift 的偏好程度（越大越偏好）
func (d *ScheduleData) Preference(nurse, shift int) float64 {
	mustIndex("护士", nurse, d.nurseCount)
	mustIndex("班次", shift, d.shiftCount)
	return d.preference[nurse*d.shiftCount+shift]
}

func (d *ScheduleData) MinWork(nurse int) int {
	mustIndex("护士", nurse, d.nurseCount)
	return d.minWork[nurse]
}

func (d *ScheduleData) MaxWork(nurse int) int {
	mustIndex("护士", nurse, d.nurseCount)
	return d.maxWork[nurse]
}

// AverageWorkTarget 返回公平性目标：总需求除以护士数
func (d *ScheduleData) AverageWorkTarget() float64 { return d.averageWorkTarget }

// TotalCoverage 返回所有班次所有天的需求总和
func (d *ScheduleData) TotalCoverage() int {
	total := 0
	for _, v := range d.coverage {
		total += v
	}
	return total
}

func mustIndex(name string, i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("%s下标 %d 越界（应位于 [0, %d)）", name, i, n))
	}
}

// 演示数据的规模，与命令行不带参数时的行为保持一致
const (
	demoNurseCount = 20
	demoShiftCount = 3
	demoDayCount   = 14
)

// NewDemoData 返回内置的演示数据：20 名护士、3 个班次、14 天
// 所有护士每天都可上班，夜班需求和代价与白班不同
func NewDemoData() *ScheduleData {
	d := &ScheduleData{
		nurseCount: demoNurseCount,
		shiftCount: demoShiftCount,
		dayCount:   demoDayCount,
	}

	d.availability = make([]int, d.nurseCount*d.dayCount)
	for i := range d.availability {
		d.availability[i] = 1
	}

	d.coverage = make([]int, d.shiftCount*d.dayCount)
	for j := 0; j < d.shiftCount; j++ {
		need := 5
		if j == ShiftNight {
			need = 3
		}
		for k := 0; k < d.dayCount; k++ {
			d.coverage[j*d.dayCount+k] = need
		}
	}

	d.assignCost = make([]float64, d.nurseCount*d.shiftCount*d.dayCount)
	for i := 0; i < d.nurseCount; i++ {
		for j := 0; j < d.shiftCount; j++ {
			cost := 1.0
			if j == ShiftNight {
				cost = 2.0
			}
			for k := 0; k < d.dayCount; k++ {
				d.assignCost[(i*d.shiftCount+j)*d.dayCount+k] = cost
			}
		}
	}

	d.preference = make([]float64, d.nurseCount*d.shiftCount)
	for i := 0; i < d.nurseCount; i++ {
		for j := 0; j < d.shiftCount; j++ {
			pref := 0.3
			switch j {
			case 0:
				pref = 1.0
			case 1:
				pref = 0.6
			}
			d.preference[i*d.shiftCount+j] = pref
		}
	}

	d.minWork = make([]int, d.nurseCount)
	d.maxWork = make([]int, d.nurseCount)
	for i := 0; i < d.nurseCount; i++ {
		d.minWork[i] = 6
		d.maxWork[i] = 10
	}

	d.averageWorkTarget = float64(d.TotalCoverage()) / float64(d.nurseCount)

	return d
}
