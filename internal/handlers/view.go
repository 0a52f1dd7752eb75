package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lunch-order-api/internal/dto"
	"github.com/yukikurage/lunch-order-api/internal/services"
	"github.com/yukikurage/lunch-order-api/internal/utils"
)

// ViewHandler serves the order tables of shop staff, managers and admins.
type ViewHandler struct {
	orderService *services.OrderService
	now          Clock
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(orderService *services.OrderService, now Clock) *ViewHandler {
	return &ViewHandler{
		orderService: orderService,
		now:          now,
	}
}

// ShopOrders lists today's orders of the caller's shop.
func (h *ViewHandler) ShopOrders(c *gin.Context) {
	shop, orders, err := h.orderService.ListForShopOf(c.Request.Context(), requesterOf(c), c.Query("shop"), h.now())
	if err != nil {
		respondView(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderTable(shop, orders))
}

// ManagerOrders lists the caller's company orders from yesterday on.
func (h *ViewHandler) ManagerOrders(c *gin.Context) {
	orders, err := h.orderService.ListForManager(c.Request.Context(), requesterOf(c), h.now())
	if err != nil {
		respondView(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderTable("manager", orders))
}

// AdminOrders lists one page of all of today's orders.
func (h *ViewHandler) AdminOrders(c *gin.Context) {
	page := utils.GetPaginationParams(c)
	now := h.now()

	orders, total, err := h.orderService.ListAll(c.Request.Context(), 0, page, now)
	if err != nil {
		respondView(c, err)
		return
	}

	table := dto.ToOrderTable(fmt.Sprintf("all orders %s", services.Naive(now, h.orderService.Location()).Format("2006-01-02")), orders)
	table.Pagination = &utils.PaginationResponse{
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: utils.TotalPages(total, page.Limit),
	}
	c.JSON(http.StatusOK, table)
}
