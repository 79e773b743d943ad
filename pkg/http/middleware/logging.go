package middleware

import (
	"time"

	applogger "ShotTrace/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs every request at debug level. Failed requests are
// logged by the metrics middleware.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			l.Debug("http request",
				applogger.String("method", req.Method),
				applogger.String("route", routeLabel(c)),
				applogger.String("remote_ip", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency_ms", time.Since(start)),
			)
			return err
		}
	}
}
