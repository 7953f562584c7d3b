package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
)

func (r *Repository) CreateSolveRun(run *domain.SolveRun) error {
	weights, err := json.Marshal(run.Weights)
	if err != nil {
		return fmt.Errorf("序列化权重失败: %w", err)
	}
	rules, err := json.Marshal(run.Rules)
	if err != nil {
		return fmt.Errorf("序列化休息规则失败: %w", err)
	}

	query := `
		INSERT INTO solve_runs (dataset_id, status, weights, rules, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	run.Status = domain.RunStatusQueued
	args := []any{run.DatasetID, run.Status, weights, rules, run.CreatedBy}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.CreatedAt, &run.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSolveRunByID(id int64) (*domain.SolveRun, error) {
	query := `
		SELECT dataset_id, status, weights, rules, solver_status, objective, wall_time_sec,
			error_message, created_by, created_at, started_at, finished_at, version
		FROM solve_runs WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	run := &domain.SolveRun{
		ID: id,
	}

	var weights, rules []byte
	dst := []any{
		&run.DatasetID, &run.Status, &weights, &rules, &run.SolverStatus, &run.Objective, &run.WallTimeSec,
		&run.ErrorMessage, &run.CreatedBy, &run.CreatedAt, &run.StartedAt, &run.FinishedAt, &run.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := unmarshalRunParams(run, weights, rules); err != nil {
		return nil, err
	}

	return run, nil
}

func (r *Repository) GetAllSolveRuns() ([]*domain.SolveRun, error) {
	query := `
		SELECT id, dataset_id, status, weights, rules, solver_status, objective, wall_time_sec,
			error_message, created_by, created_at, started_at, finished_at, version
		FROM solve_runs
		ORDER BY id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSolveRuns(rows)
}

func (r *Repository) GetSolveRunsByDatasetID(datasetID int64) ([]*domain.SolveRun, error) {
	query := `
		SELECT id, dataset_id, status, weights, rules, solver_status, objective, wall_time_sec,
			error_message, created_by, created_at, started_at, finished_at, version
		FROM solve_runs
		WHERE dataset_id = $1
		ORDER BY id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSolveRuns(rows)
}

// ClaimSolveRun 尝试把排队中的任务标记为求解中
// 条件更新保证同一个任务只会被一个 worker 认领，认领失败时返回 sql.ErrNoRows
func (r *Repository) ClaimSolveRun(id int64) (*domain.SolveRun, error) {
	query := `
		UPDATE solve_runs
		SET status = $1, started_at = now(), version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING dataset_id, weights, rules, created_by, created_at, started_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	run := &domain.SolveRun{
		ID:     id,
		Status: domain.RunStatusRunning,
	}

	var weights, rules []byte
	args := []any{domain.RunStatusRunning, id, domain.RunStatusQueued}
	dst := []any{&run.DatasetID, &weights, &rules, &run.CreatedBy, &run.CreatedAt, &run.StartedAt, &run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return nil, err
	}

	if err := unmarshalRunParams(run, weights, rules); err != nil {
		return nil, err
	}

	return run, nil
}

// CompleteSolveRun 在一个事务中写入求解结果
// 排班表、逐条指派和统计指标要么全部入库要么全部回滚；roster 为 nil 表示没有可行解
func (r *Repository) CompleteSolveRun(run *domain.SolveRun, roster *domain.Roster) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var rosterJSON []byte
	if roster != nil {
		if rosterJSON, err = json.Marshal(roster); err != nil {
			return fmt.Errorf("序列化排班表失败: %w", err)
		}
	}

	query := `
		UPDATE solve_runs
		SET status = $1, solver_status = $2, objective = $3, wall_time_sec = $4,
			roster = $5, finished_at = now(), version = version + 1
		WHERE id = $6 AND status = $7
		RETURNING finished_at, version
	`

	run.Status = domain.RunStatusSucceeded
	args := []any{run.Status, run.SolverStatus, run.Objective, run.WallTimeSec, rosterJSON, run.ID, domain.RunStatusRunning}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&run.FinishedAt, &run.Version); err != nil {
		return err
	}

	if roster == nil {
		return tx.Commit()
	}

	// 先删除旧记录再插入，保证重复写入时不会产生冗余行
	query = `DELETE FROM run_assignments WHERE solve_run_id = $1`
	if _, err := tx.ExecContext(ctx, query, run.ID); err != nil {
		return err
	}

	query = `
		INSERT INTO run_assignments (solve_run_id, day, shift, nurse)
		VALUES ($1, $2, $3, $4)
	`
	for _, a := range roster.Assignments(run.ID) {
		if _, err := tx.ExecContext(ctx, query, a.SolveRunID, a.Day, a.Shift, a.Nurse); err != nil {
			return err
		}
	}

	kpi := roster.KPI(run.ID, len(roster.Overload))
	query = `
		INSERT INTO run_kpis (solve_run_id, total_assignments, min_workload, max_workload, total_overload, empty_shift_slots)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (solve_run_id) DO UPDATE
		SET total_assignments = EXCLUDED.total_assignments,
			min_workload = EXCLUDED.min_workload,
			max_workload = EXCLUDED.max_workload,
			total_overload = EXCLUDED.total_overload,
			empty_shift_slots = EXCLUDED.empty_shift_slots
	`
	args = []any{kpi.SolveRunID, kpi.TotalAssignments, kpi.MinWorkload, kpi.MaxWorkload, kpi.TotalOverload, kpi.EmptyShiftSlots}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return tx.Commit()
}

// FailSolveRun 把任务标记为失败，排队中和求解中的任务都允许直接失败
func (r *Repository) FailSolveRun(id int64, message string) error {
	query := `
		UPDATE solve_runs
		SET status = $1, error_message = $2, finished_at = now(), version = version + 1
		WHERE id = $3 AND status IN ($4, $5)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{domain.RunStatusFailed, message, id, domain.RunStatusQueued, domain.RunStatusRunning}
	_, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return nil
}

// GetRosterByRunID 读取求解产出的排班表，没有可行解或尚未完成时返回 sql.ErrNoRows
func (r *Repository) GetRosterByRunID(runID int64) (*domain.Roster, error) {
	query := `
		SELECT roster FROM solve_runs WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var raw []byte
	if err := r.dbpool.QueryRowContext(ctx, query, runID).Scan(&raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, sql.ErrNoRows
	}

	roster := &domain.Roster{}
	if err := json.Unmarshal(raw, roster); err != nil {
		return nil, fmt.Errorf("反序列化排班表失败: %w", err)
	}

	return roster, nil
}

func (r *Repository) GetRunAssignments(runID int64) ([]domain.Assignment, error) {
	query := `
		SELECT id, solve_run_id, day, shift, nurse
		FROM run_assignments
		WHERE solve_run_id = $1
		ORDER BY day, shift, nurse
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]domain.Assignment, 0)
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ID, &a.SolveRunID, &a.Day, &a.Shift, &a.Nurse); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *Repository) GetRunKPI(runID int64) (*domain.RunKPI, error) {
	query := `
		SELECT total_assignments, min_workload, max_workload, total_overload, empty_shift_slots
		FROM run_kpis WHERE solve_run_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	kpi := &domain.RunKPI{
		SolveRunID: runID,
	}

	dst := []any{&kpi.TotalAssignments, &kpi.MinWorkload, &kpi.MaxWorkload, &kpi.TotalOverload, &kpi.EmptyShiftSlots}
	if err := r.dbpool.QueryRowContext(ctx, query, runID).Scan(dst...); err != nil {
		return nil, err
	}

	return kpi, nil
}

func scanSolveRuns(rows *sql.Rows) ([]*domain.SolveRun, error) {
	runs := make([]*domain.SolveRun, 0)
	for rows.Next() {
		run := &domain.SolveRun{}
		var weights, rules []byte
		dst := []any{
			&run.ID, &run.DatasetID, &run.Status, &weights, &rules, &run.SolverStatus, &run.Objective, &run.WallTimeSec,
			&run.ErrorMessage, &run.CreatedBy, &run.CreatedAt, &run.StartedAt, &run.FinishedAt, &run.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := unmarshalRunParams(run, weights, rules); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

func unmarshalRunParams(run *domain.SolveRun, weights, rules []byte) error {
	if err := json.Unmarshal(weights, &run.Weights); err != nil {
		return fmt.Errorf("反序列化权重失败: %w", err)
	}
	if err := json.Unmarshal(rules, &run.Rules); err != nil {
		return fmt.Errorf("反序列化休息规则失败: %w", err)
	}
	return nil
}
