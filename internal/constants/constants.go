package constants

// Context keys set by the auth middleware
const (
	ContextKeyUsername   = "username"
	ContextKeyPermission = "permission"
	ContextKeyRequestID  = "request_id"
)

// Validation limits
const (
	MinPasswordLength = 8
	MinOrderAmount    = 1
	MaxOrderAmount    = 20
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// GenericErrorMessage is shown on the shop/manager/admin tables when something
// unexpected happens.
const GenericErrorMessage = "エラーが発生しました"
