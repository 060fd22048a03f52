package server

import (
	"inventory/internal/metrics"
	"inventory/internal/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func New(logger *zap.Logger, m *metrics.Metrics, handlers ...RouteRegistrar) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.HTTPMetrics(m))

	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	RegisterRoutes(e, handlers...)
	return e
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
