package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const handledErrKey = "handled_error"

// SetError records an error a handler already answered with a JSON body, so
// RequestLogger can include it even though the handler returned nil.
func SetError(c echo.Context, err error) { c.Set(handledErrKey, err) }

// HandledError returns the error stored by SetError, if any.
func HandledError(c echo.Context) error {
	err, _ := c.Get(handledErrKey).(error)
	return err
}

// RequestLogger emits one structured record per request. 5xx responses log
// at error level, 4xx at warn.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			switch {
			case v.Status >= 500:
				level = slog.LevelError
			case v.Status >= 400:
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("request_id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("duration_ms", v.Latency.Milliseconds()),
				slog.String("remote_ip", v.RemoteIP),
			}
			if uid := UserID(c); uid != "" {
				attrs = append(attrs, slog.String("user_id", uid))
			}
			err := v.Error
			if err == nil {
				err = HandledError(c)
			}
			if err != nil {
				attrs = append(attrs, slog.String("err", err.Error()))
			}
			log.LogAttrs(c.Request().Context(), level, "request completed", attrs...)
			return nil
		},
	})
}
