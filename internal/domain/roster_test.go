package domain

import (
	"math"
	"testing"
)

func testRoster() *Roster {
	return &Roster{
		Days: []RosterDay{
			{Day: 0, Shifts: []RosterShift{
				{Shift: 0, Nurses: []int32{0, 2}},
				{Shift: 1, Nurses: []int32{}},
			}},
			{Day: 1, Shifts: []RosterShift{
				{Shift: 0, Nurses: []int32{2}},
				{Shift: 1, Nurses: []int32{1}},
			}},
		},
		Overload: []float64{0.5, 0, 1.25},
	}
}

func TestRosterAssignments(t *testing.T) {
	got := testRoster().Assignments(7)

	want := []Assignment{
		{SolveRunID: 7, Day: 0, Shift: 0, Nurse: 0},
		{SolveRunID: 7, Day: 0, Shift: 0, Nurse: 2},
		{SolveRunID: 7, Day: 1, Shift: 0, Nurse: 2},
		{SolveRunID: 7, Day: 1, Shift: 1, Nurse: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("指派记录数 = %d, 应为 %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("第 %d 条指派 = %+v, 应为 %+v", i, got[i], want[i])
		}
	}
}

func TestRosterKPI(t *testing.T) {
	kpi := testRoster().KPI(7, 4)

	if kpi.SolveRunID != 7 {
		t.Errorf("SolveRunID = %d", kpi.SolveRunID)
	}
	if kpi.TotalAssignments != 4 {
		t.Errorf("总指派数 = %d, 应为 4", kpi.TotalAssignments)
	}
	// 护士 3 一个班都没排到，最小工作量为 0
	if kpi.MinWorkload != 0 {
		t.Errorf("最小工作量 = %d, 应为 0", kpi.MinWorkload)
	}
	if kpi.MaxWorkload != 2 {
		t.Errorf("最大工作量 = %d, 应为 2", kpi.MaxWorkload)
	}
	if math.Abs(kpi.TotalOverload-1.75) > 1e-9 {
		t.Errorf("总超额工作量 = %g, 应为 1.75", kpi.TotalOverload)
	}
	if kpi.EmptyShiftSlots != 1 {
		t.Errorf("空班次数 = %d, 应为 1", kpi.EmptyShiftSlots)
	}
}

func TestRosterKPIEmpty(t *testing.T) {
	roster := &Roster{
		Days: []RosterDay{
			{Day: 0, Shifts: []RosterShift{{Shift: 0, Nurses: []int32{}}}},
		},
	}
	kpi := roster.KPI(1, 2)

	if kpi.TotalAssignments != 0 || kpi.MinWorkload != 0 || kpi.MaxWorkload != 0 {
		t.Errorf("空排班表的指标不符: %+v", kpi)
	}
	if kpi.EmptyShiftSlots != 1 {
		t.Errorf("空班次数 = %d, 应为 1", kpi.EmptyShiftSlots)
	}
}
