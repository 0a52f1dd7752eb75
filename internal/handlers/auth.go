package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lunch-order-api/internal/dto"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/metrics"
	"github.com/yukikurage/lunch-order-api/internal/middleware"
	"github.com/yukikurage/lunch-order-api/internal/services"
	"github.com/yukikurage/lunch-order-api/internal/session"
	"github.com/yukikurage/lunch-order-api/internal/token"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	tokens      *token.Service
	carrier     *session.Carrier
	metrics     *metrics.Metrics
	now         Clock
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, tokens *token.Service, carrier *session.Carrier, m *metrics.Metrics, now Clock) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		carrier:     carrier,
		metrics:     m,
		now:         now,
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Username    string  `json:"username" binding:"required,min=3,max=50"`
		Password    string  `json:"password" binding:"required"`
		DisplayName *string `json:"display_name"`
		CompanyID   *uint64 `json:"company_id"`
		ShopName    *string `json:"shop_name"`
		MenuID      *uint64 `json:"menu_id"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, apierrors.KeyMessage, errInvalidBody)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), services.SignupInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		CompanyID:   req.CompanyID,
		ShopName:    req.ShopName,
		MenuID:      req.MenuID,
	})
	if err != nil {
		respond(c, apierrors.KeyMessage, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user and sets the identity cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, apierrors.KeyMessage, errInvalidBody)
		return
	}

	user, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respond(c, apierrors.KeyMessage, err)
		return
	}

	now := h.now()
	tok, err := h.tokens.Issue(user.Username, now, token.WithPermission(user.Permission))
	if err != nil {
		respond(c, apierrors.KeyMessage, err)
		return
	}
	h.metrics.TokenIssued()

	identity := session.Identity{Username: user.Username, Permission: user.Permission}
	session.Write(c.Writer, h.carrier.Attach(identity, tok, h.tokens.ExpiresAt(now), nil))

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Logout removes the identity cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	session.Write(c.Writer, h.carrier.Clear())

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	username, _ := middleware.GetUsername(c)

	user, err := h.authService.GetUser(c.Request.Context(), username)
	if err != nil {
		respond(c, apierrors.KeyMessage, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
