package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderSubmittedCountsByResult(t *testing.T) {
	m := New()

	m.OrderSubmitted("bento", "created")
	m.OrderSubmitted("bento", "duplicate")
	m.OrderSubmitted("bento", "duplicate")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersSubmit.WithLabelValues("bento", "created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersSubmit.WithLabelValues("bento", "duplicate")))
}

func TestStatusUpdatedLabelsResult(t *testing.T) {
	m := New()

	m.StatusUpdated("checked", true)
	m.StatusUpdated("checked", false)
	m.StatusUpdated("checked", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusUpdates.WithLabelValues("checked", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statusUpdates.WithLabelValues("checked", "failure")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/shops/me", "200", 10*time.Millisecond)
	m.TokenIssued()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "lunch_order_http_requests_total"))
	assert.True(t, strings.Contains(body, "lunch_order_auth_tokens_issued_total 1"))
}
