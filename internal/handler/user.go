package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/profile-service/internal/middleware"
	"github.com/iliyamo/profile-service/internal/model"
	"github.com/iliyamo/profile-service/internal/service"
)

// UserHandler serves the authenticated profile endpoints.
type UserHandler struct {
	Profiles *service.Profiles
	Timeout  time.Duration
}

func NewUserHandler(p *service.Profiles, timeout time.Duration) *UserHandler {
	return &UserHandler{Profiles: p, Timeout: timeout}
}

// updateReq is a partial update; absent keys stay nil. Age range is checked
// by the service in field order, not here.
type updateReq struct {
	FirstName  *string `json:"firstname" validate:"omitempty,max=100"`
	LastName   *string `json:"lastname" validate:"omitempty,max=100"`
	Age        *int    `json:"age"`
	Gender     *string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Bio        *string `json:"bio" validate:"omitempty,max=2000"`
	ProfileURL *string `json:"profile_url" validate:"omitempty,http_url,max=2048"`
}

func (r updateReq) toUpdate() service.ProfileUpdate {
	u := service.ProfileUpdate{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Age:        r.Age,
		Bio:        r.Bio,
		ProfileURL: r.ProfileURL,
	}
	if r.Gender != nil {
		g := model.Gender(*r.Gender)
		u.Gender = &g
	}
	return u
}

// GetProfile returns the caller's profile through the cache.
func (h *UserHandler) GetProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	p, err := h.Profiles.GetProfile(ctx, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "User Fetched", p)
}

// UpdateProfile applies the fields present in the body.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateReq
	if err := decodeAndValidate(c.Request().Body, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Profiles.UpdateProfile(ctx, middleware.UserID(c), req.toUpdate()); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "User Updated", nil)
}
