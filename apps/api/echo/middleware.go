package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
)

// requireRoles lets the request through when the token holds any of roles.
func requireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := verifyToken(ctx)
			if err != nil {
				return err
			}
			for _, have := range claims.Roles {
				for _, want := range roles {
					if have == want {
						return next(ctx)
					}
				}
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return requireRoles(user.AdminRoles...)
}
