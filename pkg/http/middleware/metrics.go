package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// HTTPObserver receives per-request measurements. pkg/metrics.Recorder implements it.
type HTTPObserver interface {
	HTTPStarted(route, method string) func(status, bytes int, elapsed time.Duration)
}

// Metrics records request count, latency, size and in-flight gauge.
func Metrics(obs HTTPObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			done := obs.HTTPStarted(routeLabel(c), c.Request().Method)
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			done(res.Status, int(res.Size), time.Since(start))
			return nil
		}
	}
}
