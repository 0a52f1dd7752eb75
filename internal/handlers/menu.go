package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lunch-order-api/internal/dto"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/repository"
)

var errShopRequired = apierrors.New(apierrors.KindInvalidInput, "shop is required")

// MenuHandler serves menu browsing.
type MenuHandler struct {
	menus repository.MenuRepository
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(menus repository.MenuRepository) *MenuHandler {
	return &MenuHandler{menus: menus}
}

// ListMenus lists the orderable items of a shop.
func (h *MenuHandler) ListMenus(c *gin.Context) {
	shop := c.Query("shop")
	if shop == "" {
		respond(c, apierrors.KeyMessage, errShopRequired)
		return
	}

	menus, err := h.menus.ListEnabledByShop(c.Request.Context(), shop)
	if err != nil {
		respond(c, apierrors.KeyMessage, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"menus": dto.ToMenuDTOs(menus)})
}
