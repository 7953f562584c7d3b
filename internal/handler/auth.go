package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const authCookieName = "__nurse_roster_token"

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// issueSession 为用户签发 JWT 并写入 http-only cookie，配置中的有效期以秒为单位
func (h *Handler) issueSession(w http.ResponseWriter, user *domain.User) error {
	now := time.Now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    ss,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
	}
	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}
	http.SetCookie(w, cookie)

	return nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 无论是用户不存在还是密码不对，都返回同一句提示，不让接口暴露用户名是否存在
	user, err := h.repository.GetUserByUsername(req.Username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "用户名或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.errorResponse(w, r, "用户名或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 停用的账号不允许换取新令牌
	if !user.IsActive {
		h.errorResponse(w, r, "账号已被停用，请联系管理员")
		return
	}

	if err := h.issueSession(w, user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "登录成功", user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	// MaxAge < 0 会让浏览器立即删除这个 cookie
	http.SetCookie(w, &http.Cookie{
		Name:   authCookieName,
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})

	h.successResponse(w, r, "登出成功", nil)
}
