package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/maywin-dev/nurse-roster/backend/internal/scheduler"
	"github.com/maywin-dev/nurse-roster/backend/internal/solver"
)

// 大矩阵只预览前几行，完整内容可以用 -dump 写出 CSV 后核对
const summaryRowLimit = 8

func main() {
	var (
		w1        float64
		w2        float64
		w3        float64
		timeLimit float64
		threads   int
		gap       float64
		output    bool
		dump      bool
	)

	flag.Float64Var(&w1, "w1", 5, "值班代价权重")
	flag.Float64Var(&w2, "w2", 8, "超额工作量权重")
	flag.Float64Var(&w3, "w3", 6, "偏好惩罚权重")
	flag.Float64Var(&timeLimit, "time-limit", 300, "求解时间限制（秒），不大于零表示不限制")
	flag.IntVar(&threads, "threads", 0, "求解线程数，0 表示由求解器自行决定")
	flag.Float64Var(&gap, "gap", 0, "MIP 相对间隙，0 表示使用求解器默认值")
	flag.BoolVar(&output, "output", false, "是否打印求解器自身的日志")
	flag.BoolVar(&dump, "dump", false, "是否写出 debug_*.csv 供人工核对")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 不带数据参数时使用内置演示数据，否则要求按顺序给出全部六个数据源
	var data *scheduler.ScheduleData
	var err error
	switch flag.NArg() {
	case 0:
		data = scheduler.NewDemoData()
	case 6:
		data, err = scheduler.LoadFromFiles(scheduler.SourcePaths{
			Sizes:        flag.Arg(0),
			Availability: flag.Arg(1),
			Coverage:     flag.Arg(2),
			AssignCost:   flag.Arg(3),
			Preference:   flag.Arg(4),
			WorkBounds:   flag.Arg(5),
		})
		if err != nil {
			logger.Error("加载数据源失败", slog.String("error", err.Error()))
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "用法: %s [选项] [sizes availability coverage assign_cost preference work_bounds]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "不带数据参数时使用内置演示数据；带参数时六个数据源缺一不可。")
		flag.PrintDefaults()
		os.Exit(1)
	}

	printInputSummary(data)

	if dump {
		if err := scheduler.DumpDebugFiles(data, "."); err != nil {
			logger.Error("写出调试文件失败", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println("\n已写出 debug_*.csv 供人工核对。")
	}

	hs := solver.NewHiGHS(solver.Options{
		TimeLimitSec: timeLimit,
		Threads:      threads,
		MIPRelGap:    gap,
		Output:       output,
	})

	params := &scheduler.Parameters{
		Weights: domain.Weights{Cost: w1, Fairness: w2, Preference: w3},
	}

	s, err := scheduler.New(data, params, hs)
	if err != nil {
		logger.Error("构造求解流程失败", slog.String("error", err.Error()))
		os.Exit(1)
	}

	outcome, err := s.Run(context.Background())
	if err != nil {
		logger.Error("求解失败", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 不可行、无界也算正常结束，状态会如实打印
	printOutcome(outcome)
}

// printInputSummary 打印模型实际使用的输入数据
func printInputSummary(data *scheduler.ScheduleData) {
	printIntMatrix("可用性 [护士 x 天]", data.NurseCount(), data.DayCount(), summaryRowLimit, data.Availability)
	printIntMatrix("需求 [班次 x 天]", data.ShiftCount(), data.DayCount(), 0, data.Coverage)
	printFloatMatrix("偏好 [护士 x 班次]", data.NurseCount(), data.ShiftCount(), summaryRowLimit, data.Preference)

	fmt.Println("\n每名护士的工作量上下限（前 10 名）:")
	for i := 0; i < data.NurseCount() && i < 10; i++ {
		fmt.Printf("护士 %d: 最少 %d 最多 %d\n", i, data.MinWork(i), data.MaxWork(i))
	}
	if data.NurseCount() > 10 {
		fmt.Printf("...（其余 %d 名护士省略）\n", data.NurseCount()-10)
	}

	// 抽查第 0 名护士的值班代价，方便核对数据是否按护士、班次、天对齐
	for j := 0; j < data.ShiftCount() && j < 3; j++ {
		printCostSlice(data, 0, j)
	}

	fmt.Printf("\n护士 %d 名，班次 %d 个，排班周期 %d 天\n", data.NurseCount(), data.ShiftCount(), data.DayCount())
	fmt.Printf("周期内总需求 = %d\n", data.TotalCoverage())
	fmt.Printf("平均工作量目标 = %.3f\n", data.AverageWorkTarget())
}

// printIntMatrix 逐行打印整型矩阵，rowLimit 大于零时超出的行只打印省略说明
func printIntMatrix(title string, rows, cols, rowLimit int, at func(r, c int) int) {
	fmt.Printf("\n%s（%d x %d）:\n", title, rows, cols)
	shown := rows
	if rowLimit > 0 && rows > rowLimit {
		shown = rowLimit
	}
	for r := 0; r < shown; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				fmt.Print(",")
			}
			fmt.Print(at(r, c))
		}
		fmt.Println()
	}
	if rows > shown {
		fmt.Printf("...（其余 %d 行省略）\n", rows-shown)
	}
}

func printFloatMatrix(title string, rows, cols, rowLimit int, at func(r, c int) float64) {
	fmt.Printf("\n%s（%d x %d）:\n", title, rows, cols)
	shown := rows
	if rowLimit > 0 && rows > rowLimit {
		shown = rowLimit
	}
	for r := 0; r < shown; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				fmt.Print(",")
			}
			fmt.Printf("%.3f", at(r, c))
		}
		fmt.Println()
	}
	if rows > shown {
		fmt.Printf("...（其余 %d 行省略）\n", rows-shown)
	}
}

func printCostSlice(data *scheduler.ScheduleData, nurse, shift int) {
	fmt.Printf("\n值班代价（护士 %d，班次 %d，逐天）:\n", nurse, shift)
	for k := 0; k < data.DayCount(); k++ {
		if k > 0 {
			fmt.Print(",")
		}
		fmt.Printf("%.3f", data.Cost(nurse, shift, k))
	}
	fmt.Println()
}

// printOutcome 打印求解结果
// 有可行解时逐天逐班次列出护士，无人当班的班次也会明确标出
func printOutcome(outcome *scheduler.Outcome) {
	if !outcome.Status.HasRoster() {
		fmt.Printf("\n求解结束，状态 = %s，没有排班表可输出\n", outcome.Status)
		return
	}

	fmt.Println("\n================= 排班结果 =================")
	fmt.Printf("目标函数值: %.4f\n", outcome.Objective)

	for _, day := range outcome.Roster.Days {
		fmt.Printf("第 %d 天\n", day.Day+1)
		for _, shift := range day.Shifts {
			fmt.Printf("  班次 %d -> 护士:", shift.Shift)
			if len(shift.Nurses) == 0 {
				fmt.Print(" （无）")
			}
			for _, nurse := range shift.Nurses {
				fmt.Printf(" %d", nurse)
			}
			fmt.Println()
		}
	}
}
