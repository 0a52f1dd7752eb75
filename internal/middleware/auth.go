package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lunch-order-api/internal/constants"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/permission"
	"github.com/yukikurage/lunch-order-api/internal/session"
	"github.com/yukikurage/lunch-order-api/internal/token"
)

// Authenticator checks the identity cookies of a request.
type Authenticator struct {
	carrier *session.Carrier
	tokens  *token.Service
	now     func() time.Time
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(carrier *session.Carrier, tokens *token.Service, now func() time.Time) *Authenticator {
	return &Authenticator{
		carrier: carrier,
		tokens:  tokens,
		now:     now,
	}
}

// RequireAuth admits requests whose cookies carry a valid, unexpired token
// for the sub cookie. Errors are written with the given response key.
func (a *Authenticator) RequireAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		values, ok := a.carrier.Extract(c.Request)
		if !ok || values.Subject() == "" || values.Token() == "" || values.Expiry() == "" {
			apierrors.AbortAs(c, key, session.ErrCookieMissing)
			return
		}

		now := a.now()
		if session.IsExpired(values.Expiry(), now) {
			session.Write(c.Writer, a.carrier.Clear())
			apierrors.AbortAs(c, key, token.ErrExpiredToken)
			return
		}

		claims, err := a.tokens.Verify(values.Token(), now)
		if err != nil {
			session.Write(c.Writer, a.carrier.Clear())
			apierrors.AbortAs(c, key, err)
			return
		}

		if claims.Subject != values.Subject() {
			apierrors.AbortAs(c, key, session.ErrCookieMalformed)
			return
		}

		// The signed claim wins over the plain cookie.
		level := permission.User
		if claims.Permission != nil {
			level = *claims.Permission
		}

		c.Set(constants.ContextKeyUsername, claims.Subject)
		c.Set(constants.ContextKeyPermission, level)
		c.Next()
	}
}

// RequirePermission admits only callers whose level is in allowed. It must
// run after RequireAuth.
func RequirePermission(key string, allowed permission.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		level, _ := GetPermission(c)
		if err := permission.Authorize(level, allowed); err != nil {
			apierrors.AbortAs(c, key, err)
			return
		}
		c.Next()
	}
}

// GetUsername retrieves the authenticated username from context
func GetUsername(c *gin.Context) (string, bool) {
	username := c.GetString(constants.ContextKeyUsername)
	return username, username != ""
}

// GetPermission retrieves the authenticated permission level from context
func GetPermission(c *gin.Context) (int, bool) {
	v, exists := c.Get(constants.ContextKeyPermission)
	if !exists {
		return 0, false
	}
	level, ok := v.(int)
	return level, ok
}
