package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/profile-service/internal/middleware"
	"github.com/iliyamo/profile-service/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Reg     *service.Registration
	Login   *service.Login
	Timeout time.Duration // per-request bound on store and cache work
}

func NewAuthHandler(reg *service.Registration, login *service.Login, timeout time.Duration) *AuthHandler {
	return &AuthHandler{Reg: reg, Login: login, Timeout: timeout}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,pwbytes"`
}

type verifyReq struct {
	Email string `json:"email" validate:"required,email,max=254"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type resendReq struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type loginReq struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,pwbytes"`
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register stores a pending OTP and the account, then reports that the code
// was sent.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := decodeAndValidate(c.Request().Body, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Reg.BeginRegistration(ctx, req.Username, req.Email, req.Password); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, "Email Sent Successfully", nil)
}

// VerifyOTP consumes the pending passcode for an email.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyReq
	if err := decodeAndValidate(c.Request().Body, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Reg.VerifyOTP(ctx, normalizeEmail(req.Email), req.OTP); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "OTP verified successfully", nil)
}

// ResendOTP issues a fresh passcode for an unverified account.
func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req resendReq
	if err := decodeAndValidate(c.Request().Body, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Reg.ResendOTP(ctx, normalizeEmail(req.Email)); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Email Sent Successfully", nil)
}

// Signin verifies credentials; the token is returned in the body and set as
// the auth_token cookie.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req loginReq
	if err := decodeAndValidate(c.Request().Body, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Login.Login(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return writeError(c, err)
	}
	c.SetCookie(res.Cookie)
	return ok(c, http.StatusOK, "Signin Successfully", res.Token)
}

// Logout expires the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.Login.LogoutCookie())
	return ok(c, http.StatusOK, "Signout Successfully", nil)
}

// Me returns the account id of the current session.
func (h *AuthHandler) Me(c echo.Context) error {
	return ok(c, http.StatusOK, "Authenticated", middleware.UserID(c))
}
