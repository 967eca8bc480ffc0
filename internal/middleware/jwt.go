package middleware // reusable HTTP middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/profile-service/internal/utils"
)

// SessionAuth validates the auth_token cookie and stores the account id
// under "user_id" for downstream handlers. Requests without a cookie get
// 401 "Missing token"; any validation failure gets 401 "Invalid token: <cause>".
func SessionAuth(tokens *utils.SessionTokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(utils.SessionCookieName)
			if err != nil || ck.Value == "" {
				return unauthorized(c, "Missing token")
			}
			id, err := tokens.Validate(ck.Value)
			if err != nil {
				return unauthorized(c, "Invalid token: "+err.Error())
			}
			c.Set(userIDKey, id.String())
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg, "data": nil})
}
