package scheduler

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
)

// SourcePaths: 六个外部数据源的路径，要么全部给出，要么一个都不给
type SourcePaths struct {
	Sizes        string // 一行三个正整数：护士数、班次数、天数
	Availability string // nurseCount × dayCount，0/1
	Coverage     string // shiftCount × dayCount
	AssignCost   string // nurseCount·shiftCount × dayCount，护士优先、班次次之
	Preference   string // nurseCount × shiftCount
	WorkBounds   string // nurseCount × 2，每行为 min,max
}

// ShapeError: 数据源的行列数与期望不符
type ShapeError struct {
	Source   string
	WantRows int
	WantCols int
	GotRows  int
	GotCols  int
	Row      int // 出错的数据行（从 1 开始），为 0 表示整体行数不符
}

func (e *ShapeError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: 第 %d 行应有 %d 列，实际 %d 列", e.Source, e.Row, e.WantCols, e.GotCols)
	}
	return fmt.Sprintf("%s: 应有 %d 行，实际 %d 行", e.Source, e.WantRows, e.GotRows)
}

// LoadFromFiles 读取六个 CSV 数据源并构造 ScheduleData
// 任何一个源读取、解析或校验失败都会使整个加载失败，不会产生部分可用的数据
func LoadFromFiles(paths SourcePaths) (*ScheduleData, error) {
	nurses, shifts, days, err := readSizes(paths.Sizes)
	if err != nil {
		return nil, err
	}
	if nurses <= 0 || shifts <= 0 || days <= 0 {
		return nil, fmt.Errorf("sizes: 问题规模必须为正数（护士 %d、班次 %d、天数 %d）", nurses, shifts, days)
	}

	in := &Input{NurseCount: nurses, ShiftCount: shifts, DayCount: days}

	if in.Availability, err = readIntMatrix(paths.Availability, "availability", nurses, days); err != nil {
		return nil, err
	}
	if in.Coverage, err = readIntMatrix(paths.Coverage, "coverage", shifts, days); err != nil {
		return nil, err
	}
	if in.AssignCost, err = readFloatMatrix(paths.AssignCost, "assign_cost", nurses*shifts, days); err != nil {
		return nil, err
	}
	if in.Preference, err = readFloatMatrix(paths.Preference, "preference", nurses, shifts); err != nil {
		return nil, err
	}

	bounds, err := readIntMatrix(paths.WorkBounds, "work_bounds", nurses, 2)
	if err != nil {
		return nil, err
	}
	in.MinWork = make([]int, nurses)
	in.MaxWork = make([]int, nurses)
	for i, row := range bounds {
		in.MinWork[i] = row[0]
		in.MaxWork[i] = row[1]
	}

	return NewScheduleData(in)
}

// FromDataset 把入库的数据集还原成求解核心使用的排班数据
// 入库时已经校验过一次，这里再过一遍同样的校验，保证两条路径行为一致
func FromDataset(ds *domain.Dataset) (*ScheduleData, error) {
	return NewScheduleData(&Input{
		NurseCount:   int(ds.NurseCount),
		ShiftCount:   int(ds.ShiftCount),
		DayCount:     int(ds.DayCount),
		Availability: ds.Availability,
		Coverage:     ds.Coverage,
		AssignCost:   ds.AssignCost,
		Preference:   ds.Preference,
		MinWork:      ds.MinWork,
		MaxWork:      ds.MaxWork,
	})
}

// readSizes 读取规模描述文件：一行，三个整数
func readSizes(path string) (nurses, shifts, days int, err error) {
	m, err := readIntMatrix(path, "sizes", 1, 3)
	if err != nil {
		return 0, 0, 0, err
	}
	return m[0][0], m[0][1], m[0][2], nil
}

// readRows 读取一个 CSV 文件的全部数据行
// 以 # 开头的行和去掉空白后为空的行会被跳过
func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开数据源失败: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", path, err)
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readIntMatrix(path, source string, rows, cols int) ([][]int, error) {
	records, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(records) != rows {
		return nil, &ShapeError{Source: source, WantRows: rows, WantCols: cols, GotRows: len(records)}
	}

	m := make([][]int, rows)
	for r, record := range records {
		if len(record) != cols {
			return nil, &ShapeError{Source: source, WantRows: rows, WantCols: cols, GotRows: rows, GotCols: len(record), Row: r + 1}
		}
		m[r] = make([]int, cols)
		for c, field := range record {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("%s: 第 %d 行第 %d 列的 %q 不是整数", source, r+1, c+1, field)
			}
			m[r][c] = v
		}
	}
	return m, nil
}

func readFloatMatrix(path, source string, rows, cols int) ([][]float64, error) {
	records, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(records) != rows {
		return nil, &ShapeError{Source: source, WantRows: rows, WantCols: cols, GotRows: len(records)}
	}

	m := make([][]float64, rows)
	for r, record := range records {
		if len(record) != cols {
			return nil, &ShapeError{Source: source, WantRows: rows, WantCols: cols, GotRows: rows, GotCols: len(record), Row: r + 1}
		}
		m[r] = make([]float64, cols)
		for c, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: 第 %d 行第 %d 列的 %q 不是数字", source, r+1, c+1, field)
			}
			m[r][c] = v
		}
	}
	return m, nil
}
