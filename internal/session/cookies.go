// Package session moves identity between requests as plain cookie values.
// It keeps no state of its own; the token cookie is what gets verified.
package session

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
)

var (
	ErrCookieMissing   = apierrors.New(apierrors.KindCookieMissing, "")
	ErrCookieMalformed = apierrors.New(apierrors.KindCookieMalformed, "")
)

// Cookie names
const (
	CookieSubject       = "sub"
	CookieToken         = "token"
	CookieExpiry        = "exp"
	CookiePermission    = "permission"
	CookieLastOrderDate = "last_order_date"
)

var recognized = []string{
	CookieSubject,
	CookieToken,
	CookieExpiry,
	CookiePermission,
	CookieLastOrderDate,
}

// Identity is who the cookies describe.
type Identity struct {
	Username   string
	Permission int
}

// Values holds the recognized cookies found on a request.
type Values map[string]string

func (v Values) Subject() string { return v[CookieSubject] }
func (v Values) Token() string   { return v[CookieToken] }
func (v Values) Expiry() string  { return v[CookieExpiry] }

// Permission parses the permission cookie.
func (v Values) Permission() (int, bool) {
	raw, ok := v[CookiePermission]
	if !ok {
		return 0, false
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return level, true
}

// Carrier builds and reads the identity cookies.
type Carrier struct {
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// NewCarrier creates a Carrier with the default cookie attributes.
func NewCarrier(secure bool) *Carrier {
	return &Carrier{
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Attach returns the cookies that carry identity, token and expiry, plus any
// extra claims such as last_order_date.
func (c *Carrier) Attach(identity Identity, token string, exp time.Time, extra map[string]string) []*http.Cookie {
	values := []struct{ name, value string }{
		{CookieSubject, identity.Username},
		{CookieToken, token},
		{CookieExpiry, exp.UTC().Format(time.RFC3339Nano)},
		{CookiePermission, strconv.Itoa(identity.Permission)},
	}

	cookies := make([]*http.Cookie, 0, len(values)+len(extra))
	for _, v := range values {
		cookies = append(cookies, c.cookie(v.name, v.value, exp))
	}
	for name, value := range extra {
		cookies = append(cookies, c.cookie(name, value, exp))
	}
	return cookies
}

// Set returns a single cookie using the carrier's attributes.
func (c *Carrier) Set(name, value string, exp time.Time) *http.Cookie {
	return c.cookie(name, value, exp)
}

func (c *Carrier) cookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.Path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

// Extract collects the recognized cookies. ok is false when none is present,
// which callers treat as "not authenticated".
func (c *Carrier) Extract(r *http.Request) (Values, bool) {
	values := Values{}
	for _, name := range recognized {
		ck, err := r.Cookie(name)
		if err != nil || ck.Value == "" {
			continue
		}
		values[name] = ck.Value
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// Clear returns deletion instructions for every recognized cookie.
func (c *Carrier) Clear() []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(recognized))
	for _, name := range recognized {
		cookies = append(cookies, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     c.Path,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: c.SameSite,
		})
	}
	return cookies
}

// Write sets the cookies on a response.
func Write(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, ck := range cookies {
		http.SetCookie(w, ck)
	}
}

// IsExpired compares the exp cookie against now. The value may be RFC3339 or
// unix seconds; anything else counts as expired.
func IsExpired(exp string, now time.Time) bool {
	exp = strings.TrimSpace(exp)
	if exp == "" {
		return true
	}

	if t, err := time.Parse(time.RFC3339, exp); err == nil {
		return !now.Before(t)
	}
	if secs, err := strconv.ParseInt(exp, 10, 64); err == nil {
		return !now.Before(time.Unix(secs, 0))
	}
	return true
}
