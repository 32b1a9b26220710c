package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RBAC admits requests whose token role, as set by Auth, is one of
// allowedRoles. Serve mode mounts it with "admin" so that a valid token
// alone cannot queue sync runs. A request that skipped Auth has no role
// and is refused.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(RoleKey).(string)
			if _, ok := allowed[role]; !ok || role == "" {
				return echo.NewHTTPError(http.StatusForbidden, "role not allowed to trigger sync")
			}
			return next(c)
		}
	}
}
