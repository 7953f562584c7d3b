package scheduler

import (
	"fmt"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
)

// 二元变量的取整阈值：求解器返回的值大于该阈值视为 1
const assignThreshold = 0.5

// Decode 把求解器返回的原始解向量重投影回 (日期, 班次, 护士) 结构
// 无人当班的班次也会保留在结果中；这里只做重投影，不重新推导任何指标
func Decode(data *ScheduleData, values []float64) (*domain.Roster, error) {
	dims := data.Dims()
	if len(values) != dims.VariableCount() {
		return nil, fmt.Errorf("解向量长度 %d 与变量总数 %d 不符", len(values), dims.VariableCount())
	}

	roster := &domain.Roster{
		Days:     make([]domain.RosterDay, 0, data.DayCount()),
		Overload: make([]float64, data.NurseCount()),
	}

	for k := 0; k < data.DayCount(); k++ {
		day := domain.RosterDay{
			Day:    int32(k),
			Shifts: make([]domain.RosterShift, 0, data.ShiftCount()),
		}
		for j := 0; j < data.ShiftCount(); j++ {
			shift := domain.RosterShift{
				Shift:  int32(j),
				Nurses: make([]int32, 0),
			}
			for i := 0; i < data.NurseCount(); i++ {
				if values[dims.XID(i, j, k)] > assignThreshold {
					shift.Nurses = append(shift.Nurses, int32(i))
				}
			}
			day.Shifts = append(day.Shifts, shift)
		}
		roster.Days = append(roster.Days, day)
	}

	for i := 0; i < data.NurseCount(); i++ {
		roster.Overload[i] = values[dims.OID(i)]
	}

	return roster, nil
}
