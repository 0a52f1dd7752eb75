package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/metrics"
	"github.com/yukikurage/lunch-order-api/internal/middleware"
	"github.com/yukikurage/lunch-order-api/internal/services"
	"github.com/yukikurage/lunch-order-api/internal/token"
)

var errForeignSubject = apierrors.New(apierrors.KindNotAuthorized, "tokens can only be issued for the signed-in user")

// TokenHandler issues and verifies tokens. Its errors use the {detail} body.
type TokenHandler struct {
	authService *services.AuthService
	tokens      *token.Service
	metrics     *metrics.Metrics
	now         Clock
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(authService *services.AuthService, tokens *token.Service, m *metrics.Metrics, now Clock) *TokenHandler {
	return &TokenHandler{
		authService: authService,
		tokens:      tokens,
		metrics:     m,
		now:         now,
	}
}

// GenerateToken refreshes the caller's token. It runs behind RequireAuth; a
// username, given as a query parameter or a JSON body, must name the caller.
// The new token carries the caller's stored permission.
func (h *TokenHandler) GenerateToken(c *gin.Context) {
	var req struct {
		Username string `json:"username" form:"username"`
	}
	if c.Request.Method == http.MethodGet || c.ContentType() != gin.MIMEJSON {
		_ = c.ShouldBindQuery(&req)
	} else if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, apierrors.KeyDetail, errInvalidBody)
			return
		}
	}

	subject, ok := middleware.GetUsername(c)
	if !ok {
		respond(c, apierrors.KeyDetail, token.ErrMalformedToken)
		return
	}
	if req.Username != "" && req.Username != subject {
		respond(c, apierrors.KeyDetail, errForeignSubject)
		return
	}

	ctx := c.Request.Context()
	user, err := h.authService.GetUser(ctx, subject)
	if err != nil {
		respond(c, apierrors.KeyDetail, err)
		return
	}

	tok, err := h.tokens.Issue(user.Username, h.now(), token.WithPermission(user.Permission))
	if err != nil {
		respond(c, apierrors.KeyDetail, err)
		return
	}
	h.metrics.TokenIssued()

	if err := h.authService.RecordRefresh(ctx, user); err != nil {
		_ = c.Error(err)
	}

	c.JSON(http.StatusOK, gin.H{"token": tok})
}

// VerifyToken decodes a token and returns its claims.
func (h *TokenHandler) VerifyToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, apierrors.KeyDetail, token.ErrMalformedToken)
		return
	}

	claims, err := h.tokens.Verify(req.Token, h.now())
	if err != nil {
		respond(c, apierrors.KeyDetail, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payload": claims})
}
