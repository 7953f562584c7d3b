package seed

import (
	"context"
	"database/sql"
	"time"

	"github.com/maywin-dev/nurse-roster/backend/internal/config"
	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/maywin-dev/nurse-roster/backend/internal/scheduler"
)

// 各张表按依赖顺序建表，重复执行不会报错
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		version INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT users_username_key UNIQUE (username),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS datasets (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		nurse_count INTEGER NOT NULL,
		shift_count INTEGER NOT NULL,
		day_count INTEGER NOT NULL,
		availability JSONB NOT NULL,
		coverage JSONB NOT NULL,
		assign_cost JSONB NOT NULL,
		preference JSONB NOT NULL,
		min_work JSONB NOT NULL,
		max_work JSONB NOT NULL,
		created_by BIGINT NOT NULL REFERENCES users (id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		version INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT datasets_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS solve_runs (
		id BIGSERIAL PRIMARY KEY,
		dataset_id BIGINT NOT NULL,
		status TEXT NOT NULL,
		weights JSONB NOT NULL,
		rules JSONB NOT NULL,
		solver_status TEXT NOT NULL DEFAULT '',
		objective DOUBLE PRECISION,
		wall_time_sec DOUBLE PRECISION,
		error_message TEXT NOT NULL DEFAULT '',
		roster JSONB,
		created_by BIGINT NOT NULL REFERENCES users (id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		version INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT solve_runs_dataset_id_fkey FOREIGN KEY (dataset_id) REFERENCES datasets (id)
	)`,
	`CREATE TABLE IF NOT EXISTS run_assignments (
		id BIGSERIAL PRIMARY KEY,
		solve_run_id BIGINT NOT NULL REFERENCES solve_runs (id) ON DELETE CASCADE,
		day INTEGER NOT NULL,
		shift INTEGER NOT NULL,
		nurse INTEGER NOT NULL,
		CONSTRAINT run_assignments_slot_key UNIQUE (solve_run_id, day, shift, nurse)
	)`,
	`CREATE TABLE IF NOT EXISTS run_kpis (
		solve_run_id BIGINT PRIMARY KEY REFERENCES solve_runs (id) ON DELETE CASCADE,
		total_assignments INTEGER NOT NULL,
		min_workload INTEGER NOT NULL,
		max_workload INTEGER NOT NULL,
		total_overload DOUBLE PRECISION NOT NULL,
		empty_shift_slots INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS solve_runs_dataset_id_idx ON solve_runs (dataset_id)`,
	`CREATE INDEX IF NOT EXISTS solve_runs_status_idx ON solve_runs (status)`,
}

// Bootstrap 创建全部数据表，已经存在的表不会被改动
func Bootstrap(cfg *config.Config, dbpool *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := dbpool.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

// DemoDataset 把内置的演示数据转换成可入库的数据集
func DemoDataset(createdBy int64) *domain.Dataset {
	data := scheduler.NewDemoData()
	nurses, shifts, days := data.NurseCount(), data.ShiftCount(), data.DayCount()

	ds := &domain.Dataset{
		Name:        "演示数据集",
		Description: "内置演示数据：20 名护士、3 个班次、14 天",
		NurseCount:  int32(nurses),
		ShiftCount:  int32(shifts),
		DayCount:    int32(days),
		CreatedBy:   createdBy,
	}

	ds.Availability = make([][]int, nurses)
	for i := 0; i < nurses; i++ {
		ds.Availability[i] = make([]int, days)
		for k := 0; k < days; k++ {
			ds.Availability[i][k] = data.Availability(i, k)
		}
	}

	ds.Coverage = make([][]int, shifts)
	for j := 0; j < shifts; j++ {
		ds.Coverage[j] = make([]int, days)
		for k := 0; k < days; k++ {
			ds.Coverage[j][k] = data.Coverage(j, k)
		}
	}

	ds.AssignCost = make([][]float64, nurses*shifts)
	for i := 0; i < nurses; i++ {
		for j := 0; j < shifts; j++ {
			row := make([]float64, days)
			for k := 0; k < days; k++ {
				row[k] = data.Cost(i, j, k)
			}
			ds.AssignCost[i*shifts+j] = row
		}
	}

	ds.Preference = make([][]float64, nurses)
	for i := 0; i < nurses; i++ {
		ds.Preference[i] = make([]float64, shifts)
		for j := 0; j < shifts; j++ {
			ds.Preference[i][j] = data.Preference(i, j)
		}
	}

	ds.MinWork = make([]int, nurses)
	ds.MaxWork = make([]int, nurses)
	for i := 0; i < nurses; i++ {
		ds.MinWork[i] = data.MinWork(i)
		ds.MaxWork[i] = data.MaxWork(i)
	}

	return ds
}
