package middleware

// identity.go holds the helpers that read the authenticated account from the
// Echo context. SessionAuth stores it; handlers and the rate limiter read it.

import "github.com/labstack/echo/v4"

const userIDKey = "user_id"

// UserID returns the account id set by SessionAuth, or "" when the request
// is unauthenticated.
func UserID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok {
		return s
	}
	return ""
}

// rateIdentity is the per-user component of a rate-limit key.
func rateIdentity(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
