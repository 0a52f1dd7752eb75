package session

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachExtract(t *testing.T) {
	carrier := NewCarrier(false)
	exp := time.Date(2025, 4, 1, 12, 30, 0, 0, time.UTC)

	cookies := carrier.Attach(Identity{Username: "alice", Permission: 2}, "tok", exp,
		map[string]string{CookieLastOrderDate: "2025-04-01"})
	require.Len(t, cookies, 5)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		assert.True(t, ck.HttpOnly)
		assert.Equal(t, "/", ck.Path)
		req.AddCookie(ck)
	}

	values, ok := carrier.Extract(req)
	require.True(t, ok)
	assert.Equal(t, "alice", values.Subject())
	assert.Equal(t, "tok", values.Token())
	assert.Equal(t, "2025-04-01T12:30:00Z", values.Expiry())
	assert.Equal(t, "2025-04-01", values[CookieLastOrderDate])

	level, ok := values.Permission()
	require.True(t, ok)
	assert.Equal(t, 2, level)
}

func TestExtractWithoutCookies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "unrelated", Value: "x"})

	values, ok := NewCarrier(false).Extract(req)
	assert.False(t, ok)
	assert.Nil(t, values)
}

func TestClear(t *testing.T) {
	cookies := NewCarrier(true).Clear()
	require.Len(t, cookies, len(recognized))
	for _, ck := range cookies {
		assert.Equal(t, -1, ck.MaxAge)
		assert.Empty(t, ck.Value)
		assert.True(t, ck.Secure)
	}

	w := httptest.NewRecorder()
	Write(w, cookies)
	assert.Len(t, w.Result().Cookies(), len(recognized))
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		exp  string
		want bool
	}{
		{"future rfc3339", "2025-04-01T12:00:01Z", false},
		{"exactly now", "2025-04-01T12:00:00Z", true},
		{"past rfc3339", "2025-04-01T11:59:59Z", true},
		{"future fractional", "2025-04-01T12:00:00.5Z", false},
		{"past fractional", "2025-04-01T11:59:59.999Z", true},
		{"future unix", strconv.FormatInt(now.Add(time.Minute).Unix(), 10), false},
		{"past unix", strconv.FormatInt(now.Add(-time.Minute).Unix(), 10), true},
		{"empty", "", true},
		{"garbage", "tomorrow", true},
		{"python repr", "2025-04-01 12:30:00.123456", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsExpired(tc.exp, now))
		})
	}
}

func TestPermissionCookieMalformed(t *testing.T) {
	values := Values{CookiePermission: "admin"}
	_, ok := values.Permission()
	assert.False(t, ok)
}
