package middleware

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// actorKey returns a stable identifier for the caller, used to scope rate
// limit buckets and cache entries.  Authenticated requests are keyed by
// the user_id claim regardless of how the token encoded it; anonymous
// requests fall back to the client IP so unauthenticated traffic still
// gets a bucket.
func actorKey(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case nil:
    case string:
        if v != "" {
            return "u:" + v
        }
    case float64:
        return fmt.Sprintf("u:%.0f", v)
    default:
        return fmt.Sprintf("u:%v", v)
    }
    if ip := c.RealIP(); ip != "" {
        return "ip:" + ip
    }
    return "anon"
}
