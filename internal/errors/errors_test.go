package errors

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"expired", New(KindExpiredToken, "Token has expired"), http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired"},
		{"wrapped duplicate", fmt.Errorf("submit: %w", New(KindDuplicateOrder, "")), http.StatusBadRequest, "ERROR_FORBIDDEN_SECOND_ORDER", "You have already ordered today"},
		{"forbidden", New(KindNotAuthorized, ""), http.StatusForbidden, "FORBIDDEN", "Access denied"},
		{"cookie", New(KindCookieMissing, ""), http.StatusBadRequest, "COOKIE_MISSING", "Missing identity cookies, please log in again"},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found"},
		{"duplicated key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), http.StatusConflict, "CONFLICT", "Resource conflict"},
		{"bad conn", driver.ErrBadConn, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable, please try again later"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out, please try again later"},
		{"untagged", stderrors.New("boom: secret detail"), http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
		{"internal with cause", Wrap(KindInternal, stderrors.New("db password wrong"), "leaky"), http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, apiErr := Translate(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, apiErr.Code)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("unique constraint")
	err := Wrap(KindConstraintViolation, cause, "")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unique constraint")
}

func TestRespondFamiliesShareStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	err := New(KindExpiredToken, "Token has expired")

	for _, key := range []string{KeyMessage, KeyError, KeyDetail} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		RespondAs(c, key, err)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Token has expired", body[key])
	}
}

func TestRespondHTML(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Accept", "text/html")

	Respond(c, New(KindNotAuthorized, "<no>"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "&lt;no&gt;")
}
