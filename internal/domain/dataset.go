package domain

import "time"

// Dataset: 一次排班问题的全部输入，矩阵直接以 JSON 形式入库
// 行列布局与求解核心的要求一致，入库前必须通过形状和取值校验
type Dataset struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	NurseCount int32 `json:"nurseCount"`
	ShiftCount int32 `json:"shiftCount"`
	DayCount   int32 `json:"dayCount"`

	Availability [][]int     `json:"availability"` // nurseCount 行 × dayCount 列，0/1
	Coverage     [][]int     `json:"coverage"`     // shiftCount 行 × dayCount 列
	AssignCost   [][]float64 `json:"assignCost"`   // nurseCount·shiftCount 行 × dayCount 列
	Preference   [][]float64 `json:"preference"`   // nurseCount 行 × shiftCount 列
	MinWork      []int       `json:"minWork"`      // nurseCount
	MaxWork      []int       `json:"maxWork"`      // nurseCount

	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
