package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/lunch-order-api/internal/dto"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/middleware"
	"github.com/yukikurage/lunch-order-api/internal/services"
)

var errInvalidUserID = apierrors.New(apierrors.KindInvalidInput, "Invalid user ID")

// AdminHandler serves user administration.
type AdminHandler struct {
	authService *services.AuthService
	log         *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(authService *services.AuthService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		authService: authService,
		log:         log,
	}
}

// SetPermission changes a user's permission level. The new level applies to
// tokens issued afterwards.
func (h *AdminHandler) SetPermission(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respond(c, apierrors.KeyMessage, errInvalidUserID)
		return
	}

	var req struct {
		Permission int `json:"permission" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, apierrors.KeyMessage, errInvalidBody)
		return
	}

	user, err := h.authService.SetPermission(c.Request.Context(), id, req.Permission)
	if err != nil {
		respond(c, apierrors.KeyMessage, err)
		return
	}

	admin, _ := middleware.GetUsername(c)
	h.log.WithFields(logrus.Fields{
		"admin":      admin,
		"user_id":    user.ID,
		"permission": user.Permission,
	}).Info("permission changed")

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
