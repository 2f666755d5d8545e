// Package middleware provides the request-processing chain shared by the
// booking routes: bearer-token authentication, role gating, per-actor
// rate limiting and response caching.
package middleware

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// JWTAuth validates the Bearer access token on every request and stores
// the subject and role claims in the context under "user_id" and "role".
// Tokens must be HS256-signed with the given secret; anything else is
// rejected with 401.  Downstream code reads the claims via getUserID-style
// helpers and performs its own type assertions.
func JWTAuth(secret string) echo.MiddlewareFunc {
    key := []byte(secret)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c.Request().Header.Get("Authorization"))
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return key, nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            c.Set("user_id", claims["sub"])
            c.Set("role", claims["role"])
            return next(c)
        }
    }
}

// bearerToken splits "Bearer <token>" out of an Authorization header.
func bearerToken(header string) (string, bool) {
    const prefix = "Bearer "
    if !strings.HasPrefix(header, prefix) {
        return "", false
    }
    tok := strings.TrimSpace(header[len(prefix):])
    return tok, tok != ""
}
