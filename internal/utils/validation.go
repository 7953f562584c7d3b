package utils

import (
	"fmt"
	"slices"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
)

// ValidateWeights 检查目标函数权重是否合法
func ValidateWeights(w domain.Weights) error {
	if w.Cost < 0 || w.Fairness < 0 || w.Preference < 0 {
		return fmt.Errorf("权重不允许为负（代价 %g、公平 %g、偏好 %g）", w.Cost, w.Fairness, w.Preference)
	}
	return nil
}

// ValidateRosterShape 检查排班表的结构是否与数据集的规模一致
// 天数、每天的班次数、护士编号范围都必须吻合，同一班次内不允许出现重复护士
func ValidateRosterShape(roster *domain.Roster, ds *domain.Dataset) error {
	if len(roster.Days) != int(ds.DayCount) {
		return fmt.Errorf("排班表有 %d 天，数据集声明 %d 天", len(roster.Days), ds.DayCount)
	}
	if len(roster.Overload) != int(ds.NurseCount) {
		return fmt.Errorf("超额工作量有 %d 项，数据集声明 %d 名护士", len(roster.Overload), ds.NurseCount)
	}

	for k, day := range roster.Days {
		if int(day.Day) != k {
			return fmt.Errorf("第 %d 天的编号为 %d，应按日期顺序排列", k, day.Day)
		}
		if len(day.Shifts) != int(ds.ShiftCount) {
			return fmt.Errorf("第 %d 天有 %d 个班次，数据集声明 %d 个", k, len(day.Shifts), ds.ShiftCount)
		}
		for j, shift := range day.Shifts {
			if int(shift.Shift) != j {
				return fmt.Errorf("第 %d 天第 %d 个班次的编号为 %d，应按班次顺序排列", k, j, shift.Shift)
			}

			seen := make(map[int32]bool, len(shift.Nurses))
			for _, nurse := range shift.Nurses {
				if nurse < 0 || nurse >= ds.NurseCount {
					return fmt.Errorf("第 %d 天班次 %d 引用了不存在的护士 %d", k, j, nurse)
				}
				if seen[nurse] {
					return fmt.Errorf("第 %d 天班次 %d 中护士 %d 重复出现", k, j, nurse)
				}
				seen[nurse] = true
			}
		}
	}

	return nil
}

// ValidateRosterWithDataset 逐条核对排班表是否满足数据集的硬性要求
// 覆盖是等式要求，人数多于或少于需求都算违反；任何一条违反都说明建模或解码有缺陷，
// 这样的排班表不允许入库
func ValidateRosterWithDataset(roster *domain.Roster, ds *domain.Dataset, rules []domain.AdjacencyRule) error {
	if err := ValidateRosterShape(roster, ds); err != nil {
		return err
	}

	workload := make([]int, ds.NurseCount)

	for k, day := range roster.Days {
		onDuty := make(map[int32]int32) // 护士 -> 当天已安排的班次
		for j, shift := range day.Shifts {
			if len(shift.Nurses) != ds.Coverage[j][k] {
				return fmt.Errorf("第 %d 天班次 %d 安排了 %d 人，需求为 %d", k, j, len(shift.Nurses), ds.Coverage[j][k])
			}
			for _, nurse := range shift.Nurses {
				if ds.Availability[nurse][k] == 0 {
					return fmt.Errorf("护士 %d 第 %d 天没空，但被安排了班次 %d", nurse, k, j)
				}
				if other, exists := onDuty[nurse]; exists {
					return fmt.Errorf("护士 %d 第 %d 天同时被安排了班次 %d 和 %d", nurse, k, other, j)
				}
				onDuty[nurse] = int32(j)
				workload[nurse]++
			}
		}
	}

	// 相邻两天的禁止组合，引用的班次超出范围的规则跳过，与建模行为一致
	for _, rule := range rules {
		if rule.FromShift < 0 || rule.FromShift >= int(ds.ShiftCount) {
			continue
		}
		if rule.ToShift < 0 || rule.ToShift >= int(ds.ShiftCount) {
			continue
		}
		for k := 0; k+1 < len(roster.Days); k++ {
			next := roster.Days[k+1].Shifts[rule.ToShift].Nurses
			for _, nurse := range roster.Days[k].Shifts[rule.FromShift].Nurses {
				if slices.Contains(next, nurse) {
					return fmt.Errorf("护士 %d 第 %d 天值班次 %d 后，第 %d 天又被安排了班次 %d", nurse, k, rule.FromShift, k+1, rule.ToShift)
				}
			}
		}
	}

	for i := int32(0); i < ds.NurseCount; i++ {
		if workload[i] < ds.MinWork[i] || workload[i] > ds.MaxWork[i] {
			return fmt.Errorf("护士 %d 的工作量 %d 超出上下限 [%d, %d]", i, workload[i], ds.MinWork[i], ds.MaxWork[i])
		}
	}

	return nil
}
