package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// WindowCounter counts hits per key in a fixed window.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	Logger *zap.Logger
}

// RateLimit throttles each client IP to Limit requests per Window. Counts
// live in the shared counter; when it fails the process-local window is
// used instead.
func RateLimit(counter WindowCounter, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	local := newLocalWindow(time.Now)

	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()
		var (
			count     int64
			remaining time.Duration
			err       error
		)
		if counter != nil {
			count, remaining, err = counter.IncrWindow(c.Request.Context(), key, cfg.Window)
			if err != nil {
				cfg.Logger.Debug("rate limit store unavailable", zap.Error(err))
			}
		}
		if counter == nil || err != nil {
			count, remaining = local.incr(key, cfg.Window)
		}

		left := int64(cfg.Limit) - count
		if left < 0 {
			left = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(left, 10))
		if count > int64(cfg.Limit) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

type windowEntry struct {
	count int64
	reset time.Time
}

// localWindow is the in-process fallback counter.
type localWindow struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*windowEntry
	sweep   time.Time
}

func newLocalWindow(now func() time.Time) *localWindow {
	return &localWindow{now: now, entries: make(map[string]*windowEntry)}
}

func (w *localWindow) incr(key string, window time.Duration) (int64, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	if now.After(w.sweep) {
		for k, e := range w.entries {
			if !now.Before(e.reset) {
				delete(w.entries, k)
			}
		}
		w.sweep = now.Add(window)
	}
	entry, ok := w.entries[key]
	if !ok || !now.Before(entry.reset) {
		entry = &windowEntry{reset: now.Add(window)}
		w.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.reset.Sub(now)
}
