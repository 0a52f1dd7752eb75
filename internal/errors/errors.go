package errors

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Kind tags every error the API can surface.
type Kind int

const (
	KindInternal Kind = iota

	// Authentication
	KindExpiredToken
	KindMalformedToken
	KindMissingToken

	// Authorization
	KindNotAuthorized

	// Cookies
	KindCookieMissing
	KindCookieMalformed

	// Workflow
	KindDuplicateOrder
	KindNotFound
	KindInvalidInput
	KindInvalidTransition

	// Storage
	KindConnectionFailed
	KindConstraintViolation
	KindTimeout

	// Transport
	KindRateLimited
)

type kindInfo struct {
	code    string
	status  int
	message string
}

var kinds = map[Kind]kindInfo{
	KindInternal:            {"INTERNAL_ERROR", http.StatusInternalServerError, "Internal server error"},
	KindExpiredToken:        {"TOKEN_EXPIRED", http.StatusUnauthorized, "Token has expired"},
	KindMalformedToken:      {"TOKEN_INVALID", http.StatusUnauthorized, "Invalid token"},
	KindMissingToken:        {"UNAUTHORIZED", http.StatusUnauthorized, "Authentication required"},
	KindNotAuthorized:       {"FORBIDDEN", http.StatusForbidden, "Access denied"},
	KindCookieMissing:       {"COOKIE_MISSING", http.StatusBadRequest, "Missing identity cookies, please log in again"},
	KindCookieMalformed:     {"COOKIE_MALFORMED", http.StatusBadRequest, "Malformed identity cookies, please log in again"},
	KindDuplicateOrder:      {"ERROR_FORBIDDEN_SECOND_ORDER", http.StatusBadRequest, "You have already ordered today"},
	KindNotFound:            {"NOT_FOUND", http.StatusNotFound, "Resource not found"},
	KindInvalidInput:        {"INVALID_INPUT", http.StatusBadRequest, "Invalid request"},
	KindInvalidTransition:   {"INVALID_OPERATION", http.StatusConflict, "Operation not allowed in the current state"},
	KindConnectionFailed:    {"SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "Service temporarily unavailable, please try again later"},
	KindConstraintViolation: {"CONFLICT", http.StatusConflict, "Resource conflict"},
	KindTimeout:             {"TIMEOUT", http.StatusGatewayTimeout, "Request timed out, please try again later"},
	KindRateLimited:         {"TOO_MANY_REQUESTS", http.StatusTooManyRequests, "Too many requests, please slow down"},
}

// Code returns the stable machine-readable code of the kind.
func (k Kind) Code() string { return kinds[k].code }

// Status returns the HTTP status the kind maps to.
func (k Kind) Status() int { return kinds[k].status }

func (k Kind) String() string { return k.Code() }

// Error is a tagged error. Message is safe to show to users; Err is the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = kinds[e.Kind].message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a tagged error with a user-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags cause with kind.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf resolves the kind of any error. Untagged errors are classified as
// storage failures when they come from the database layer.
func KindOf(err error) Kind {
	var tagged *Error
	if stderrors.As(err, &tagged) {
		return tagged.Kind
	}
	return classifyStorage(err)
}

func classifyStorage(err error) Kind {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case stderrors.Is(err, driver.ErrBadConn):
		return KindConnectionFailed
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case stderrors.Is(err, gorm.ErrDuplicatedKey),
		stderrors.Is(err, gorm.ErrForeignKeyViolated):
		return KindConstraintViolation
	default:
		return KindInternal
	}
}

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// Translate is the single boundary mapping from an error to status and body.
// Internal causes never leak into the message.
func Translate(err error) (int, *APIError) {
	kind := KindOf(err)
	info := kinds[kind]

	msg := info.message
	var tagged *Error
	if stderrors.As(err, &tagged) && tagged.Message != "" && kind != KindInternal {
		msg = tagged.Message
	}
	return info.status, NewAPIError(info.code, msg)
}

// Response families differ only in the JSON key carrying the message.
const (
	KeyMessage = "message"
	KeyError   = "error"
	KeyDetail  = "detail"
)

// Respond writes err using the default {code, message} body.
func Respond(c *gin.Context, err error) {
	status, apiErr := Translate(err)
	if wantsHTML(c) {
		respondHTML(c, status, apiErr.Message)
		return
	}
	c.JSON(status, apiErr)
}

// RespondAs writes err as {key: message}, for endpoint families whose
// clients expect "error" or "detail".
func RespondAs(c *gin.Context, key string, err error) {
	status, apiErr := Translate(err)
	RespondMessage(c, status, key, apiErr.Message)
}

// RespondMessage writes a fixed message with the given status.
func RespondMessage(c *gin.Context, status int, key, message string) {
	if wantsHTML(c) {
		respondHTML(c, status, message)
		return
	}
	c.JSON(status, gin.H{key: message})
}

func wantsHTML(c *gin.Context) bool {
	if c.Request == nil || c.GetHeader("Accept") == "" {
		return false
	}
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}

func respondHTML(c *gin.Context, status int, message string) {
	body := fmt.Sprintf("<!DOCTYPE html><html><body><h1>%d</h1><p>%s</p></body></html>",
		status, html.EscapeString(message))
	c.Data(status, "text/html; charset=utf-8", []byte(body))
}

// Abort writes err and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Respond(c, err)
	c.Abort()
}

// AbortAs is Abort for a specific response family.
func AbortAs(c *gin.Context, key string, err error) {
	RespondAs(c, key, err)
	c.Abort()
}
