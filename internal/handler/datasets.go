package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/maywin-dev/nurse-roster/backend/internal/scheduler"
)

func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string      `json:"name" validate:"required,max=64"`
		Description  string      `json:"description" validate:"max=256"`
		NurseCount   int32       `json:"nurseCount" validate:"required,min=1"`
		ShiftCount   int32       `json:"shiftCount" validate:"required,min=1"`
		DayCount     int32       `json:"dayCount" validate:"required,min=1"`
		Availability [][]int     `json:"availability" validate:"required"`
		Coverage     [][]int     `json:"coverage" validate:"required"`
		AssignCost   [][]float64 `json:"assignCost" validate:"required"`
		Preference   [][]float64 `json:"preference" validate:"required"`
		MinWork      []int       `json:"minWork" validate:"required"`
		MaxWork      []int       `json:"maxWork" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	ds := &domain.Dataset{
		Name:         req.Name,
		Description:  req.Description,
		NurseCount:   req.NurseCount,
		ShiftCount:   req.ShiftCount,
		DayCount:     req.DayCount,
		Availability: req.Availability,
		Coverage:     req.Coverage,
		AssignCost:   req.AssignCost,
		Preference:   req.Preference,
		MinWork:      req.MinWork,
		MaxWork:      req.MaxWork,
		CreatedBy:    myInfo.ID,
	}

	// 入库前先过一遍求解核心的形状和取值校验，保证入库的数据集一定可以用于建模
	if _, err := scheduler.FromDataset(ds); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateDataset(ds); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "datasets_name_key":
			h.badRequest(w, r, errors.New("数据集名称已存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "数据集创建成功", ds)
}

func (h *Handler) GetAllDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.repository.GetAllDatasets()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取数据集列表成功", datasets)
}

func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds := r.Context().Value(DatasetCtx).(*domain.Dataset)
	h.successResponse(w, r, "获取数据集成功", ds)
}

func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	ds := r.Context().Value(DatasetCtx).(*domain.Dataset)

	if err := h.repository.DeleteDataset(ds.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "solve_runs_dataset_id_fkey":
			h.badRequest(w, r, errors.New("数据集已被求解任务引用，无法删除"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除数据集成功", nil)
}

func (h *Handler) GetDatasetSolveRuns(w http.ResponseWriter, r *http.Request) {
	ds := r.Context().Value(DatasetCtx).(*domain.Dataset)

	runs, err := h.repository.GetSolveRunsByDatasetID(ds.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取求解任务列表成功", runs)
}
