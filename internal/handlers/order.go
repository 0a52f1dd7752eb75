package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lunch-order-api/internal/constants"
	"github.com/yukikurage/lunch-order-api/internal/dto"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/middleware"
	"github.com/yukikurage/lunch-order-api/internal/models"
	"github.com/yukikurage/lunch-order-api/internal/services"
	"github.com/yukikurage/lunch-order-api/internal/session"
)

var (
	errInvalidAmount  = apierrors.New(apierrors.KindInvalidInput, "amount must be a number")
	errInvalidOrderID = apierrors.New(apierrors.KindInvalidInput, "Invalid order ID")
)

// OrderHandler serves order submission and status changes.
type OrderHandler struct {
	orderService *services.OrderService
	carrier      *session.Carrier
	now          Clock
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService, carrier *session.Carrier, now Clock) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		carrier:      carrier,
		now:          now,
	}
}

func requesterOf(c *gin.Context) services.Requester {
	username, _ := middleware.GetUsername(c)
	level, _ := middleware.GetPermission(c)
	return services.Requester{Username: username, Permission: level}
}

// OrderComplete submits an order of the caller's default menu item and
// returns it together with the caller's orders of the day.
func (h *OrderHandler) OrderComplete(c *gin.Context) {
	amount := constants.MinOrderAmount
	if raw := c.Query("amount"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respond(c, apierrors.KeyError, errInvalidAmount)
			return
		}
		amount = n
	}

	ctx := c.Request.Context()
	username, _ := middleware.GetUsername(c)
	now := h.now()

	order, err := h.orderService.SubmitOrder(ctx, username, amount, now)
	if err != nil {
		respond(c, apierrors.KeyError, err)
		return
	}

	// The order is committed; a failed listing only shortens the response.
	orders, err := h.orderService.ListForUser(ctx, username, 0, now)
	if err != nil {
		_ = c.Error(err)
		orders = []models.Order{*order}
	}

	slot := order.CreatedAt.Format(models.SlotLayout)
	http.SetCookie(c.Writer, h.carrier.Set(session.CookieLastOrderDate, slot, now.Add(24*time.Hour)))

	c.JSON(http.StatusCreated, dto.OrderCompleteResponse{
		Order:  dto.ToOrderRowDTO(*order),
		Orders: dto.ToOrderRows(orders),
	})
}

// CancelOrder cancels a single order.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respond(c, apierrors.KeyError, errInvalidOrderID)
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), id, requesterOf(c), h.now())
	if err != nil {
		respond(c, apierrors.KeyError, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderRowDTO(*order))
}

// UpdateCancelStatus applies a batch of cancel flags. Each item succeeds or
// fails on its own.
func (h *OrderHandler) UpdateCancelStatus(c *gin.Context) {
	var req dto.CancelUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, apierrors.KeyError, errInvalidBody)
		return
	}

	updates := make([]services.CancelUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = services.CancelUpdate{OrderID: u.OrderID, Canceled: u.Canceled}
	}

	results := h.orderService.BulkUpdateCanceled(c.Request.Context(), requesterOf(c), updates, h.now())
	c.JSON(http.StatusOK, gin.H{"results": dto.ToCancelResults(results)})
}

// UpdateCheckedStatus applies a batch of checked flags.
func (h *OrderHandler) UpdateCheckedStatus(c *gin.Context) {
	var req dto.CheckedUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, apierrors.KeyMessage, errInvalidBody)
		return
	}

	updates := make([]services.CheckedUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = services.CheckedUpdate{OrderID: u.OrderID, Checked: u.Checked}
	}

	results := h.orderService.BulkUpdateChecked(c.Request.Context(), requesterOf(c), updates, h.now())
	c.JSON(http.StatusOK, gin.H{"results": dto.ToCheckedResults(results)})
}
