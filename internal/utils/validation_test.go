package utils

import (
	"strings"
	"testing"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
)

func TestValidateWeights(t *testing.T) {
	if err := ValidateWeights(domain.Weights{Cost: 5, Fairness: 8, Preference: 6}); err != nil {
		t.Errorf("合法权重不应返回错误: %v", err)
	}
	if err := ValidateWeights(domain.Weights{}); err != nil {
		t.Errorf("全零权重不应返回错误: %v", err)
	}
	if err := ValidateWeights(domain.Weights{Cost: -1}); err == nil {
		t.Error("负权重应返回错误")
	}
}

// testDataset 构造一个 2 护士、2 班次、2 天的数据集：
// 每个班次每天需要一人，所有人随时有空，工作量上限不设限
func testDataset() *domain.Dataset {
	return &domain.Dataset{
		NurseCount: 2,
		ShiftCount: 2,
		DayCount:   2,
		Availability: [][]int{
			{1, 1},
			{1, 1},
		},
		Coverage: [][]int{
			{1, 1},
			{1, 1},
		},
		MinWork: []int{0, 0},
		MaxWork: []int{4, 4},
	}
}

// testRoster 构造一份满足 testDataset 全部要求的排班表：
// 两人每天各值一个班次，第二天互换
func testRoster() *domain.Roster {
	return &domain.Roster{
		Days: []domain.RosterDay{
			{Day: 0, Shifts: []domain.RosterShift{
				{Shift: 0, Nurses: []int32{0}},
				{Shift: 1, Nurses: []int32{1}},
			}},
			{Day: 1, Shifts: []domain.RosterShift{
				{Shift: 0, Nurses: []int32{1}},
				{Shift: 1, Nurses: []int32{0}},
			}},
		},
		Overload: []float64{0, 0},
	}
}

func TestValidateRosterShape(t *testing.T) {
	ds := testDataset()

	if err := ValidateRosterShape(testRoster(), ds); err != nil {
		t.Errorf("合法排班表不应返回错误: %v", err)
	}

	missingDay := testRoster()
	missingDay.Days = missingDay.Days[:1]
	if err := ValidateRosterShape(missingDay, ds); err == nil {
		t.Error("缺少一天的排班表应返回错误")
	}

	badNurse := testRoster()
	badNurse.Days[0].Shifts[0].Nurses = []int32{5}
	if err := ValidateRosterShape(badNurse, ds); err == nil {
		t.Error("引用不存在护士的排班表应返回错误")
	}

	duplicate := testRoster()
	duplicate.Days[0].Shifts[0].Nurses = []int32{0, 0}
	if err := ValidateRosterShape(duplicate, ds); err == nil {
		t.Error("同一班次内重复护士应返回错误")
	}
}

func TestValidateRosterWithDataset(t *testing.T) {
	ds := testDataset()

	if err := ValidateRosterWithDataset(testRoster(), ds, nil); err != nil {
		t.Errorf("合法排班表不应返回错误: %v", err)
	}

	// 覆盖是等式要求：人数多于需求同样违反
	over := testRoster()
	over.Days[0].Shifts[0].Nurses = []int32{0, 1}
	if err := ValidateRosterWithDataset(over, ds, nil); err == nil {
		t.Error("人数超过需求应返回错误")
	}

	// 没空的护士不允许被安排
	unavailable := testDataset()
	unavailable.Availability[0][0] = 0
	if err := ValidateRosterWithDataset(testRoster(), unavailable, nil); err == nil {
		t.Error("安排了没空的护士应返回错误")
	}

	// 每人每天至多一个班次
	doubleShift := testRoster()
	doubleShift.Days[0].Shifts[1].Nurses = []int32{0}
	if err := ValidateRosterWithDataset(doubleShift, ds, nil); err == nil {
		t.Error("同一天值两个班次应返回错误")
	}

	// 工作量超出上限
	tight := testDataset()
	tight.MaxWork = []int{1, 4}
	if err := ValidateRosterWithDataset(testRoster(), tight, nil); err == nil {
		t.Error("工作量超出上限应返回错误")
	}

	// 工作量低于下限
	demanding := testDataset()
	demanding.MinWork = []int{3, 0}
	if err := ValidateRosterWithDataset(testRoster(), demanding, nil); err == nil {
		t.Error("工作量低于下限应返回错误")
	}
}

func TestValidateRosterRestRules(t *testing.T) {
	ds := testDataset()
	roster := testRoster()

	// 护士 1 第 0 天值班次 1，第 1 天值班次 0：恰好触发 1 -> 0 的禁止组合
	rules := []domain.AdjacencyRule{{FromShift: 1, ToShift: 0}}
	err := ValidateRosterWithDataset(roster, ds, rules)
	if err == nil {
		t.Fatal("违反休息规则的排班表应返回错误")
	}
	if !strings.Contains(err.Error(), "护士 1") {
		t.Errorf("错误信息应指出违规护士: %v", err)
	}

	// 引用超出范围班次的规则跳过，不影响校验结果
	outOfRange := []domain.AdjacencyRule{{FromShift: 5, ToShift: 0}, {FromShift: 0, ToShift: -1}}
	if err := ValidateRosterWithDataset(roster, ds, outOfRange); err != nil {
		t.Errorf("超出范围的规则应被跳过: %v", err)
	}
}
