package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"gorm.io/gorm"
)

// ErrConnectionFailed is returned once every connection attempt failed.
var ErrConnectionFailed = apierrors.New(apierrors.KindConnectionFailed, "")

// RetryPolicy retries connection acquisition only. Business operations are
// never retried.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy is three attempts with a fixed two second pause.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 2 * time.Second}

// Do runs fn until it succeeds, the attempts are used up or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, log *logrus.Logger, op string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}

		log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": i,
			"of":      attempts,
		}).WithError(lastErr).Warn("database connection attempt failed")

		if i == attempts {
			break
		}

		timer := time.NewTimer(p.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apierrors.Wrap(apierrors.KindTimeout, ctx.Err(), "")
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w: %s after %d attempts: %w", ErrConnectionFailed, op, attempts, lastErr)
}

// Conn hands out request-scoped sessions after making sure the pool answers.
type Conn struct {
	db     *gorm.DB
	policy RetryPolicy
	log    *logrus.Logger
}

// NewConn wraps an opened database.
func NewConn(db *gorm.DB, policy RetryPolicy, log *logrus.Logger) *Conn {
	return &Conn{db: db, policy: policy, log: log}
}

// DB returns the underlying handle, for migrations and tests.
func (c *Conn) DB() *gorm.DB {
	return c.db
}

// Acquire pings the pool with bounded retry and returns a session bound to
// ctx. After the last failed attempt it returns ErrConnectionFailed.
func (c *Conn) Acquire(ctx context.Context) (*gorm.DB, error) {
	sqlDB, err := c.db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	err = c.policy.Do(ctx, c.log, "acquire", func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	})
	if err != nil {
		return nil, err
	}
	return c.db.WithContext(ctx), nil
}

// Ping reports whether the database is reachable, for the health check.
func (c *Conn) Ping(ctx context.Context) error {
	_, err := c.Acquire(ctx)
	return err
}

// IsConnectionFailure reports whether err came from connection acquisition.
func IsConnectionFailure(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}
