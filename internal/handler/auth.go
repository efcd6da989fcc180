package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/auth"
	"go.uber.org/zap"
)

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     h.config.Auth.CookieName,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.config.Environment == "production" {
		cookie.Secure = true
	}
	return cookie
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.loginLimiter.Allow(r) {
		h.errorResponse(w, r, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		Remember bool   `json:"remember"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.authenticator.Users().Authenticate(req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Warn("登录失败", zap.String("username", req.Username), zap.String("ip", r.RemoteAddr))
			h.errorResponse(w, r, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	ttl := time.Duration(h.config.Auth.SessionTTL) * time.Second
	if req.Remember {
		ttl = time.Duration(h.config.Auth.RememberTTL) * time.Second
	}

	token, expires, err := h.authenticator.Sessions().Issue(req.Username, ttl)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 通过 http-only 的 cookie 返回给客户端
	http.SetCookie(w, h.sessionCookie(token, expires))

	h.successResponse(w, r, map[string]string{"username": req.Username})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)

	h.successResponse(w, r, nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	username, err := h.authenticator.Verify(h.credentialsFromRequest(r))
	if err != nil {
		h.unauthorized(w, r)
		return
	}
	h.successResponse(w, r, map[string]string{"username": username})
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, nil)
}
