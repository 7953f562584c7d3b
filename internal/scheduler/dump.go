package scheduler

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DumpDebugFiles 把已经加载的五个矩阵重新序列化成 CSV，方便人工核对
// 生成的文件只作为输出，核心流程不会再读取它们
func DumpDebugFiles(data *ScheduleData, dir string) error {
	availability := make([][]string, data.NurseCount())
	for i := 0; i < data.NurseCount(); i++ {
		availability[i] = make([]string, data.DayCount())
		for k := 0; k < data.DayCount(); k++ {
			availability[i][k] = strconv.Itoa(data.Availability(i, k))
		}
	}
	if err := dumpCSV(dir, "debug_availability.csv", "availability: nurse x day", availability); err != nil {
		return err
	}

	coverage := make([][]string, data.ShiftCount())
	for j := 0; j < data.ShiftCount(); j++ {
		coverage[j] = make([]string, data.DayCount())
		for k := 0; k < data.DayCount(); k++ {
			coverage[j][k] = strconv.Itoa(data.Coverage(j, k))
		}
	}
	if err := dumpCSV(dir, "debug_coverage.csv", "coverage: shift x day", coverage); err != nil {
		return err
	}

	cost := make([][]string, data.NurseCount()*data.ShiftCount())
	for i := 0; i < data.NurseCount(); i++ {
		for j := 0; j < data.ShiftCount(); j++ {
			row := make([]string, data.DayCount())
			for k := 0; k < data.DayCount(); k++ {
				row[k] = formatFloat(data.Cost(i, j, k))
			}
			cost[i*data.ShiftCount()+j] = row
		}
	}
	if err := dumpCSV(dir, "debug_assign_cost.csv", "assign_cost: (nurse*shift) x day", cost); err != nil {
		return err
	}

	preference := make([][]string, data.NurseCount())
	for i := 0; i < data.NurseCount(); i++ {
		preference[i] = make([]string, data.ShiftCount())
		for j := 0; j < data.ShiftCount(); j++ {
			preference[i][j] = formatFloat(data.Preference(i, j))
		}
	}
	if err := dumpCSV(dir, "debug_preference.csv", "preference: nurse x shift", preference); err != nil {
		return err
	}

	bounds := make([][]string, data.NurseCount())
	for i := 0; i < data.NurseCount(); i++ {
		bounds[i] = []string{strconv.Itoa(data.MinWork(i)), strconv.Itoa(data.MaxWork(i))}
	}
	if err := dumpCSV(dir, "debug_work_bounds.csv", "work_bounds: nurse x (min,max)", bounds); err != nil {
		return err
	}

	return nil
}

func dumpCSV(dir, name, comment string, rows [][]string) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建调试文件 %s 失败: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "# %s\n", comment); err != nil {
		return fmt.Errorf("写入调试文件 %s 失败: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("写入调试文件 %s 失败: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
