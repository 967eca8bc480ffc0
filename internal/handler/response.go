package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/profile-service/internal/middleware"
	"github.com/iliyamo/profile-service/internal/service"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message})
}

// statusFor maps a flow error kind to its HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindConflict:
		return http.StatusConflict
	case service.KindBadRequest:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError renders err in the envelope. Internal failures carry their
// diagnostic in the message and are handed to the request logger.
func writeError(c echo.Context, err error) error {
	kind := service.KindOf(err)
	if kind == service.KindInternal {
		middleware.SetError(c, err)
	}
	msg := err.Error()
	var se *service.Error
	if errors.As(err, &se) {
		msg = se.Message
	}
	return fail(c, statusFor(kind), msg)
}
