// Package server wires repositories, services and handlers into the router.
package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/lunch-order-api/internal/database"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"github.com/yukikurage/lunch-order-api/internal/handlers"
	"github.com/yukikurage/lunch-order-api/internal/holiday"
	"github.com/yukikurage/lunch-order-api/internal/metrics"
	"github.com/yukikurage/lunch-order-api/internal/middleware"
	"github.com/yukikurage/lunch-order-api/internal/permission"
	"github.com/yukikurage/lunch-order-api/internal/repository"
	"github.com/yukikurage/lunch-order-api/internal/services"
	"github.com/yukikurage/lunch-order-api/internal/session"
	"github.com/yukikurage/lunch-order-api/internal/token"
)

// Deps is everything the router needs. All of it is built once in main.
type Deps struct {
	Log         *logrus.Logger
	Conn        *database.Conn
	Tokens      *token.Service
	Carrier     *session.Carrier
	Permissions permission.Map
	Calendar    *holiday.Calendar
	Metrics     *metrics.Metrics
	Location    *time.Location
	RateLimiter *middleware.RateLimiter
	Now         func() time.Time
}

// NewRouter builds the gin engine with every route.
func NewRouter(d Deps) *gin.Engine {
	now := handlers.Clock(d.Now)
	if d.Now == nil {
		now = time.Now
	}

	userRepo := repository.NewUserRepository(d.Conn)
	orderRepo := repository.NewOrderRepository(d.Conn)
	menuRepo := repository.NewMenuRepository(d.Conn)

	authService := services.NewAuthService(userRepo, repository.NewCompanyRepository(d.Conn))
	orderService := services.NewOrderService(
		orderRepo,
		userRepo,
		menuRepo,
		services.PolicyFromMap(d.Permissions),
		d.Location,
		d.Log,
		d.Metrics,
	)

	authHandler := handlers.NewAuthHandler(authService, d.Tokens, d.Carrier, d.Metrics, now)
	tokenHandler := handlers.NewTokenHandler(authService, d.Tokens, d.Metrics, now)
	orderHandler := handlers.NewOrderHandler(orderService, d.Carrier, now)
	viewHandler := handlers.NewViewHandler(orderService, now)
	adminHandler := handlers.NewAdminHandler(authService, d.Log)
	menuHandler := handlers.NewMenuHandler(menuRepo)
	holidayHandler := handlers.NewHolidayHandler(d.Calendar)
	healthHandler := handlers.NewHealthHandler(d.Conn)

	auth := middleware.NewAuthenticator(d.Carrier, d.Tokens, now)
	gate := func(key, name string) gin.HandlerFunc {
		return middleware.RequirePermission(key, d.Permissions.Gate(name))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.Metrics(d.Metrics))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	// Tokens
	limitDetail := d.RateLimiter.Handler(apierrors.KeyDetail)
	refresh := auth.RequireAuth(apierrors.KeyDetail)
	r.GET("/generate-token", limitDetail, refresh, tokenHandler.GenerateToken)
	r.POST("/generate-token", limitDetail, refresh, tokenHandler.GenerateToken)
	r.POST("/verify-token", tokenHandler.VerifyToken)

	// Accounts
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", d.RateLimiter.Handler(apierrors.KeyMessage), authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET("/users/me", auth.RequireAuth(apierrors.KeyMessage), authHandler.GetCurrentUser)

	// Ordering
	r.GET("/menus", menuHandler.ListMenus)
	r.GET("/check_holiday", holidayHandler.CheckHoliday)

	orders := r.Group("")
	orders.Use(auth.RequireAuth(apierrors.KeyError))
	{
		orders.GET("/users/order_complete", orderHandler.OrderComplete)
		orders.POST("/orders/:id/cancel", orderHandler.CancelOrder)
		orders.POST("/update_cancel_status", orderHandler.UpdateCancelStatus)
	}

	// Tables
	views := r.Group("")
	views.Use(auth.RequireAuth(apierrors.KeyMessage))
	{
		shop := gate(apierrors.KeyMessage, permission.GateShop)
		views.GET("/shops/me", shop, viewHandler.ShopOrders)
		views.POST("/shops/me", shop, viewHandler.ShopOrders)
		views.POST("/update_checked_status", shop, orderHandler.UpdateCheckedStatus)

		views.GET("/manager/me", gate(apierrors.KeyMessage, permission.GateManager), viewHandler.ManagerOrders)

		admin := gate(apierrors.KeyMessage, permission.GateAdmin)
		views.GET("/admin/me", admin, viewHandler.AdminOrders)
		views.PATCH("/admin/users/:id/permission", admin, adminHandler.SetPermission)
	}

	return r
}
