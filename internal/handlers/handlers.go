package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lunch-order-api/internal/constants"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
)

// Clock returns the current instant. Handlers take it as a dependency so
// tests can pin time.
type Clock func() time.Time

var errInvalidBody = apierrors.New(apierrors.KindInvalidInput, "Invalid request body")

// respondView writes errors of the shop, manager and admin tables. Internal
// failures are reduced to the generic message.
func respondView(c *gin.Context, err error) {
	_ = c.Error(err)
	status, _ := apierrors.Translate(err)
	if status == http.StatusInternalServerError {
		apierrors.RespondMessage(c, status, apierrors.KeyMessage, constants.GenericErrorMessage)
		return
	}
	apierrors.RespondAs(c, apierrors.KeyMessage, err)
}

// respond writes err with the default body and keeps it on the context for
// the request logger.
func respond(c *gin.Context, key string, err error) {
	_ = c.Error(err)
	apierrors.RespondAs(c, key, err)
}
