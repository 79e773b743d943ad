package http

import (
	"github.com/labstack/echo/v4"
)

// ClientKey identifies the caller for per-client limits. Echo resolves
// X-Forwarded-For and X-Real-IP before falling back to the socket address.
func ClientKey(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}
