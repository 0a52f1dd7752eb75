// Package token issues and verifies the short-lived identity tokens carried
// in the "token" cookie.
//
// The signing secret is read once at startup and never rotated while the
// process runs.
package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
)

var (
	ErrExpiredToken   = apierrors.New(apierrors.KindExpiredToken, "Token has expired")
	ErrMalformedToken = apierrors.New(apierrors.KindMalformedToken, "Invalid token")
	ErrEmptySubject   = apierrors.New(apierrors.KindInvalidInput, "username is required")
)

// Precision is the resolution of the time claims. Expiry is rounded up to it
// on issue so a token never expires before its TTL has elapsed.
const Precision = time.Millisecond

func init() {
	jwt.TimePrecision = Precision
}

// Claims is the decoded payload of a verified token.
type Claims struct {
	Permission *int `json:"permission,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewService creates a new token Service.
func NewService(secret []byte, ttl time.Duration, issuer string) *Service {
	return &Service{
		secret: secret,
		ttl:    ttl,
		issuer: issuer,
	}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

type issueOptions struct {
	permission *int
}

// IssueOption customizes an issued token.
type IssueOption func(*issueOptions)

// WithPermission embeds a permission snapshot in the token.
func WithPermission(level int) IssueOption {
	return func(o *issueOptions) {
		o.permission = &level
	}
}

// Issue produces a signed token for subject valid from now until now+TTL.
func (s *Service) Issue(subject string, now time.Time, opts ...IssueOption) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrEmptySubject
	}

	var o issueOptions
	for _, opt := range opts {
		opt(&o)
	}

	claims := &Claims{
		Permission: o.permission,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt(now)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ExpiresAt returns the expiry a token issued at now would carry.
func (s *Service) ExpiresAt(now time.Time) time.Time {
	exp := now.Add(s.ttl)
	if t := exp.Truncate(Precision); t.Before(exp) {
		return t.Add(Precision)
	}
	return exp
}

// Verify checks signature and validity window as of now.
func (s *Service) Verify(tokenString string, now time.Time) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}

	// Decoded claims pass through float64 seconds; round back onto the grid
	// they were issued on before comparing.
	if !now.Before(claims.ExpiresAt.Round(Precision)) {
		return nil, ErrExpiredToken
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Round(Precision)) {
		return nil, ErrMalformedToken
	}

	return claims, nil
}
