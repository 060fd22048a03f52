package middleware

import (
	"strconv"
	"time"

	"inventory/internal/metrics"

	"github.com/labstack/echo/v4"
)

// レイテンシをルートパターン単位で記録する。
// 生パスだとIDごとにラベルが爆発するので c.Path() を使う。
func HTTPMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, path, strconv.Itoa(c.Response().Status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
