package handler

import "github.com/maywin-dev/nurse-roster/backend/internal/domain"

type ContextKey string

var (
	SessionCtx  ContextKey = "session"
	MyInfoCtx   ContextKey = "myInfo"
	UserInfoCtx ContextKey = "userInfo"
	DatasetCtx  ContextKey = "dataset"
	SolveRunCtx ContextKey = "solveRun"
)

// Session 是鉴权中间件从令牌中还原出来的登录者身份
type Session struct {
	UserID int64
	Role   domain.Role
}
