package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole limits a route to callers whose "role" claim matches one of
// the given values.  JWTAuth must run earlier in the chain; a missing or
// mistyped role claim counts as not allowed.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]struct{}, len(roles))
    for _, r := range roles {
        allowed[r] = struct{}{}
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, _ := c.Get("role").(string)
            if _, ok := allowed[role]; !ok {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
