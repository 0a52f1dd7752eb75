package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lunch-order-api/internal/config"
	"github.com/yukikurage/lunch-order-api/internal/database"
	"github.com/yukikurage/lunch-order-api/internal/holiday"
	"github.com/yukikurage/lunch-order-api/internal/logging"
	"github.com/yukikurage/lunch-order-api/internal/metrics"
	"github.com/yukikurage/lunch-order-api/internal/middleware"
	"github.com/yukikurage/lunch-order-api/internal/permission"
	"github.com/yukikurage/lunch-order-api/internal/server"
	"github.com/yukikurage/lunch-order-api/internal/session"
	"github.com/yukikurage/lunch-order-api/internal/token"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", nil).WithError(err).Fatal("Failed to load configuration")
	}

	log := logging.New(cfg.LogLevel, os.Stdout)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	conn, err := database.Connect(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(conn.DB(), log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	perms, err := permission.LoadMap(cfg.PermissionMapPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load permission map")
	}

	calendar, err := holiday.Default()
	if err != nil {
		log.WithError(err).Fatal("Failed to load holiday calendar")
	}

	limiter := middleware.NewRateLimiter(cfg.TokenRateLimit, cfg.TokenRateBurst, log)
	limiter.StartCleanup(10*time.Minute, 10000, ctx.Done())

	r := server.NewRouter(server.Deps{
		Log:         log,
		Conn:        conn,
		Tokens:      token.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL, cfg.BaseURL),
		Carrier:     session.NewCarrier(cfg.IsProduction()),
		Permissions: perms,
		Calendar:    calendar,
		Metrics:     metrics.New(),
		Location:    cfg.Timezone,
		RateLimiter: limiter,
		Now:         time.Now,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
