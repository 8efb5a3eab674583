package youtube

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Backoff bounds for transient caption service failures.
const (
	DefaultInitialBackoff = time.Second
	MaxBackoff            = 30 * time.Second
)

// statusError is a non-2xx response.
type statusError struct {
	code   int
	status string
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("youtube: unexpected status %s", e.status)
	}
	return fmt.Sprintf("youtube: unexpected status %s: %s", e.status, e.body)
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetriable reports whether err represents a transient condition that
// warrants an automatic retry (rate limits, server errors, timeouts).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	var status *statusError
	if errors.As(err, &status) {
		return status.code == http.StatusTooManyRequests || status.code >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{"connection reset", "connection refused", "temporary failure", "awaiting headers", "unexpected eof"} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsRetriable(err) || attempt >= c.maxRetries {
			return err
		}
		attempt++
		backoff := backoffFor(c.initialBackoff, attempt)
		c.logger.Debug("caption request retry",
			"op", op,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if err := SleepWithContext(ctx, backoff); err != nil {
			return err
		}
	}
}

// backoffFor doubles base for each attempt after the first, capped at
// MaxBackoff.
func backoffFor(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultInitialBackoff
	}
	backoff := base
	for i := 1; i < attempt && backoff < MaxBackoff; i++ {
		backoff *= 2
	}
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	return backoff
}
