package domain

import (
	"time"
)

// Role 只用于接口的权限控制，角色名直接存中文，和前端展示保持一致
type Role string

const (
	RoleNurse     Role = "护士"
	RoleHeadNurse Role = "护士长"
	RoleAdmin     Role = "管理员"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
