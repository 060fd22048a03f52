package handler

import (
	"net/http"
	"strconv"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /inventory のAPI
type InventoryHandler struct {
	invUC *usecase.InventoryUsecase
	resUC *usecase.ReservationUsecase
}

// DI
func NewInventoryHandler(invUC *usecase.InventoryUsecase, resUC *usecase.ReservationUsecase) *InventoryHandler {
	return &InventoryHandler{invUC: invUC, resUC: resUC}
}

func (h *InventoryHandler) RegisterRoutes(e *echo.Echo) {
	//静的パスはパラメータより先に解決される
	e.GET("/inventory/low-stock", h.lowStock)
	e.GET("/inventory/:product_id", h.getStock)
	e.GET("/inventory/:product_id/adjustments", h.listAdjustments)
	e.POST("/inventory", h.create)
	e.PUT("/inventory/:product_id/:location_id", h.update)
	e.POST("/inventory/reserve", h.reserve)
	e.POST("/inventory/adjust", h.adjust)
}

type createInventoryRequest struct {
	ProductID         string `json:"product_id"`
	LocationID        string `json:"location_id"`
	QuantityAvailable int64  `json:"quantity_available"`
	ReorderPoint      *int64 `json:"reorder_point"`
	ReorderQuantity   *int64 `json:"reorder_quantity"`
}

func (h *InventoryHandler) create(c echo.Context) error {
	var req createInventoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	rec, err := h.invUC.CreateInventory(c.Request().Context(), usecase.CreateInventoryInput{
		ProductID:         req.ProductID,
		LocationID:        req.LocationID,
		QuantityAvailable: req.QuantityAvailable,
		ReorderPoint:      req.ReorderPoint,
		ReorderQuantity:   req.ReorderQuantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

type updateInventoryRequest struct {
	ReorderPoint    *int64 `json:"reorder_point"`
	ReorderQuantity *int64 `json:"reorder_quantity"`
}

func (h *InventoryHandler) update(c echo.Context) error {
	var req updateInventoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	rec, err := h.invUC.UpdateInventory(c.Request().Context(), usecase.UpdateInventoryInput{
		ProductID:       c.Param("product_id"),
		LocationID:      c.Param("location_id"),
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *InventoryHandler) getStock(c echo.Context) error {
	out, err := h.invUC.GetStock(c.Request().Context(), c.Param("product_id"), c.QueryParam("location_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) lowStock(c echo.Context) error {
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	recs, err := h.invUC.GetLowStock(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *InventoryHandler) listAdjustments(c echo.Context) error {
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	adjs, err := h.invUC.ListAdjustments(c.Request().Context(), c.Param("product_id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, adjs)
}

type reserveRequest struct {
	ProductID      string `json:"product_id"`
	LocationID     string `json:"location_id"`
	OrderID        string `json:"order_id"`
	Quantity       int64  `json:"quantity"`
	ExpiresMinutes int    `json:"expires_minutes"`
}

func (h *InventoryHandler) reserve(c echo.Context) error {
	req := reserveRequest{ExpiresMinutes: 30}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.resUC.Reserve(c.Request().Context(), usecase.ReserveInput{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		OrderID:    req.OrderID,
		Quantity:   req.Quantity,
		TTLMinutes: req.ExpiresMinutes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

type adjustRequest struct {
	ProductID      string `json:"product_id"`
	LocationID     string `json:"location_id"`
	QuantityChange int64  `json:"quantity_change"`
	AdjustmentType string `json:"adjustment_type"`
	Reason         string `json:"reason"`
	CreatedBy      string `json:"created_by"`
}

func (h *InventoryHandler) adjust(c echo.Context) error {
	var req adjustRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.invUC.Adjust(c.Request().Context(), usecase.AdjustInput{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Delta:      req.QuantityChange,
		Type:       req.AdjustmentType,
		Reason:     req.Reason,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
