package server

import "github.com/labstack/echo/v4"

// 各ハンドラが自分のルートを登録する
type RouteRegistrar interface {
	RegisterRoutes(e *echo.Echo)
}

func RegisterRoutes(e *echo.Echo, handlers ...RouteRegistrar) {
	for _, h := range handlers {
		h.RegisterRoutes(e)
	}
}
