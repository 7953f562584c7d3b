package domain

type RosterShift struct {
	Shift  int32   `json:"shift"`
	Nurses []int32 `json:"nurses"` // 为空表示该班次当天无人当班，解码时仍然保留
}

type RosterDay struct {
	Day    int32         `json:"day"`
	Shifts []RosterShift `json:"shifts"`
}

// Roster: 解码后的排班表，外加按护士重投影的超额工作量
type Roster struct {
	Days     []RosterDay `json:"days"`
	Overload []float64   `json:"overload"`
}

// Assignments 把排班表展开成逐条指派记录
func (r *Roster) Assignments(runID int64) []Assignment {
	assignments := make([]Assignment, 0)
	for _, day := range r.Days {
		for _, shift := range day.Shifts {
			for _, nurse := range shift.Nurses {
				assignments = append(assignments, Assignment{
					SolveRunID: runID,
					Day:        day.Day,
					Shift:      shift.Shift,
					Nurse:      nurse,
				})
			}
		}
	}
	return assignments
}

// KPI 根据排班表统计运行指标
// nurseCount 必须是数据集中的护士总数，没排到班的护士也计入工作量统计
func (r *Roster) KPI(runID int64, nurseCount int) *RunKPI {
	kpi := &RunKPI{SolveRunID: runID}

	workload := make([]int32, nurseCount)
	for _, day := range r.Days {
		for _, shift := range day.Shifts {
			if len(shift.Nurses) == 0 {
				kpi.EmptyShiftSlots++
			}
			for _, nurse := range shift.Nurses {
				kpi.TotalAssignments++
				if int(nurse) < nurseCount {
					workload[nurse]++
				}
			}
		}
	}

	if nurseCount > 0 {
		kpi.MinWorkload = workload[0]
		kpi.MaxWorkload = workload[0]
		for _, w := range workload[1:] {
			if w < kpi.MinWorkload {
				kpi.MinWorkload = w
			}
			if w > kpi.MaxWorkload {
				kpi.MaxWorkload = w
			}
		}
	}

	for _, o := range r.Overload {
		kpi.TotalOverload += o
	}

	return kpi
}
