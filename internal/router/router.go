package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/profile-service/internal/handler"
	"github.com/iliyamo/profile-service/internal/middleware"
	"github.com/iliyamo/profile-service/internal/utils"
)

// RegisterRoutes registers routes that do not require authentication:
// liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, deps map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(deps))
}

// RegisterAuth registers the signup, verification and signin endpoints under
// /api/v1/auth. The limiter guards every unauthenticated auth route; the
// current-user endpoint requires a session cookie.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens *utils.SessionTokens, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/v1/auth")
	g.POST("/signup", a.Register, limiter)
	g.POST("/verify", a.VerifyOTP, limiter)
	g.POST("/resend", a.ResendOTP, limiter)
	g.POST("/signin", a.Signin, limiter)
	g.POST("/logout", a.Logout)
	g.GET("/user", a.Me, middleware.SessionAuth(tokens))
}

// RegisterUser registers the profile endpoints under /api/v1/user. All of
// them require a session cookie.
func RegisterUser(e *echo.Echo, u *handler.UserHandler, tokens *utils.SessionTokens) {
	g := e.Group("/api/v1/user", middleware.SessionAuth(tokens))
	g.GET("/profile", u.GetProfile)
	g.PATCH("/update", u.UpdateProfile)
}
