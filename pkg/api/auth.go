package api

import (
	echo "github.com/labstack/echo/v5"
)

// extractUserID extracts the requesting user from oauth2-proxy headers, for
// GenerationOptions.UserID (which scopes ConcurrencyManager's per-user slide
// slots and RateLimiter's per-user bucket).
// Priority: X-Forwarded-User > X-Forwarded-Email > X-Remote-User > "api-client".
func extractUserID(c *echo.Context) string {
	if user := c.Request().Header.Get("X-Forwarded-User"); user != "" {
		return user
	}
	if email := c.Request().Header.Get("X-Forwarded-Email"); email != "" {
		return email
	}
	if remote := c.Request().Header.Get("X-Remote-User"); remote != "" {
		return remote
	}
	return "api-client"
}
