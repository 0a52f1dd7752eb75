package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"golang.org/x/time/rate"
)

var ErrRateLimited = apierrors.New(apierrors.KindRateLimited, "")

// RateLimiter limits requests per client IP
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	log      *logrus.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond float64, burst int, log *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		log:      log,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Handler rejects requests over the limit with 429. key is the response
// family of the guarded endpoint.
func (rl *RateLimiter) Handler(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if !rl.getLimiter(client).Allow() {
			rl.log.WithFields(logrus.Fields{
				"client_ip": client,
				"path":      c.Request.URL.Path,
			}).Warn("rate limit exceeded")
			apierrors.AbortAs(c, key, ErrRateLimited)
			return
		}
		c.Next()
	}
}

// Cleanup drops every limiter once the map grows past max entries.
func (rl *RateLimiter) Cleanup(max int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) > max {
		rl.limiters = make(map[string]*rate.Limiter)
	}
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanup(interval time.Duration, max int, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(max)
			case <-stop:
				return
			}
		}
	}()
}
