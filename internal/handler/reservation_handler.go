package handler

import (
	"net/http"
	"time"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /reservations のAPI
type ReservationHandler struct {
	uc *usecase.ReservationUsecase
}

// DI
func NewReservationHandler(uc *usecase.ReservationUsecase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

func (h *ReservationHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/reservations", h.list)
	e.GET("/reservations/expired", h.listExpired)
	e.GET("/reservations/:id", h.get)
	e.POST("/reservations/:id/release", h.release)
	e.POST("/reservations/:id/complete", h.complete)
	//スケジューラやcronから叩く掃除口
	e.POST("/reservations/expire", h.expire)
}

func (h *ReservationHandler) list(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
	}

	outs, err := h.uc.ListReservations(c.Request().Context(), usecase.ListReservationsInput{
		OrderID:   c.QueryParam("order_id"),
		ProductID: c.QueryParam("product_id"),
		Status:    c.QueryParam("status"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, outs)
}

func (h *ReservationHandler) listExpired(c echo.Context) error {
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	outs, err := h.uc.GetExpiredReservations(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, outs)
}

func (h *ReservationHandler) get(c echo.Context) error {
	out, err := h.uc.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) release(c echo.Context) error {
	out, err := h.uc.Release(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) complete(c echo.Context) error {
	out, err := h.uc.Complete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type expireResponse struct {
	Expired int `json:"expired"`
}

func (h *ReservationHandler) expire(c echo.Context) error {
	count, err := h.uc.ExpireDue(c.Request().Context(), time.Now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, expireResponse{Expired: count})
}
