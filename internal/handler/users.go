package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/maywin-dev/nurse-roster/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// respondUserWriteError 把写用户表时的数据库错误翻译成给前端的提示
func (h *Handler) respondUserWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key":
		h.badRequest(w, r, errors.New("用户名已被占用"))
	case errors.As(err, &pgErr) && pgErr.ConstraintName == "users_email_key":
		h.badRequest(w, r, errors.New("邮箱已被占用"))
	case errors.Is(err, sql.ErrNoRows):
		// 乐观锁没命中，说明期间有人改过这条记录
		h.errorResponse(w, r, "用户信息已被修改，请刷新后重试")
	default:
		h.internalServerError(w, r, err)
	}
}

// GetAllUserInfo 返回用户列表，带上 ?role= 时只返回对应角色
func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	roleFilter := domain.Role(r.URL.Query().Get("role"))
	switch roleFilter {
	case "", domain.RoleNurse, domain.RoleHeadNurse, domain.RoleAdmin:
	default:
		h.errorResponse(w, r, "未知的角色")
		return
	}

	users, err := h.repository.GetAllUsers(roleFilter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取用户列表成功", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=护士 护士长 管理员"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生成随机初始密码
	initialPassword := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(initialPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}

	if err := h.repository.CreateUser(user); err != nil {
		h.respondUserWriteError(w, r, err)
		return
	}

	// 初始密码只在这个响应中出现一次，之后无法再次获取
	h.successResponse(w, r, "创建用户成功", struct {
		User            *domain.User `json:"user"`
		InitialPassword string       `json:"initialPassword"`
	}{
		User:            user,
		InitialPassword: initialPassword,
	})
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取用户信息成功", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"fullName"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Role     *string `json:"role" validate:"omitempty,oneof=护士 护士长 管理员"`
		IsActive *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 只覆盖请求里带了的字段
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = domain.Role(*req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateUser(user); err != nil {
		h.respondUserWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新用户信息成功", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.repository.DeleteUser(user.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除用户成功", nil)
}

// UpdateUserPassword 由管理员直接重置指定用户的密码
func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user.PasswordHash = string(hashedPassword)
	if err := h.repository.UpdateUser(user); err != nil {
		h.respondUserWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}
