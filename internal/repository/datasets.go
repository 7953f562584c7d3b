package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
)

// 数据集的矩阵以 JSONB 入库：一个数据集的矩阵只会整体读写，没有按元素查询的需求
func marshalMatrices(ds *domain.Dataset) (availability, coverage, assignCost, preference, minWork, maxWork []byte, err error) {
	if availability, err = json.Marshal(ds.Availability); err != nil {
		return
	}
	if coverage, err = json.Marshal(ds.Coverage); err != nil {
		return
	}
	if assignCost, err = json.Marshal(ds.AssignCost); err != nil {
		return
	}
	if preference, err = json.Marshal(ds.Preference); err != nil {
		return
	}
	if minWork, err = json.Marshal(ds.MinWork); err != nil {
		return
	}
	maxWork, err = json.Marshal(ds.MaxWork)
	return
}

func (r *Repository) CreateDataset(ds *domain.Dataset) error {
	availability, coverage, assignCost, preference, minWork, maxWork, err := marshalMatrices(ds)
	if err != nil {
		return fmt.Errorf("序列化数据集矩阵失败: %w", err)
	}

	query := `
		INSERT INTO datasets (name, description, nurse_count, shift_count, day_count,
			availability, coverage, assign_cost, preference, min_work, max_work, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		ds.Name, ds.Description, ds.NurseCount, ds.ShiftCount, ds.DayCount,
		availability, coverage, assignCost, preference, minWork, maxWork, ds.CreatedBy,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&ds.ID, &ds.CreatedAt, &ds.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetDatasetByID(id int64) (*domain.Dataset, error) {
	query := `
		SELECT name, description, nurse_count, shift_count, day_count,
			availability, coverage, assign_cost, preference, min_work, max_work,
			created_by, created_at, version
		FROM datasets WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	ds := &domain.Dataset{
		ID: id,
	}

	var availability, coverage, assignCost, preference, minWork, maxWork []byte
	dst := []any{
		&ds.Name, &ds.Description, &ds.NurseCount, &ds.ShiftCount, &ds.DayCount,
		&availability, &coverage, &assignCost, &preference, &minWork, &maxWork,
		&ds.CreatedBy, &ds.CreatedAt, &ds.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{availability, &ds.Availability},
		{coverage, &ds.Coverage},
		{assignCost, &ds.AssignCost},
		{preference, &ds.Preference},
		{minWork, &ds.MinWork},
		{maxWork, &ds.MaxWork},
	} {
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("反序列化数据集矩阵失败: %w", err)
		}
	}

	return ds, nil
}

// GetAllDatasets 只返回元数据，矩阵体积较大，按需再通过 GetDatasetByID 获取
func (r *Repository) GetAllDatasets() ([]*domain.Dataset, error) {
	query := `
		SELECT id, name, description, nurse_count, shift_count, day_count, created_by, created_at, version
		FROM datasets
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	datasets := make([]*domain.Dataset, 0)
	for rows.Next() {
		ds := &domain.Dataset{}
		dst := []any{&ds.ID, &ds.Name, &ds.Description, &ds.NurseCount, &ds.ShiftCount, &ds.DayCount, &ds.CreatedBy, &ds.CreatedAt, &ds.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return datasets, nil
}

func (r *Repository) DeleteDataset(id int64) error {
	query := `
		DELETE FROM datasets WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
