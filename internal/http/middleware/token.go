package middleware

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
)

// StaticToken authenticates ops endpoints (audit, task results) against a
// shared X-API-Key header. An empty configured key disables the check.
func StaticToken(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}

			got := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if got == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			if got != key {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}
			return next(c)
		}
	}
}
