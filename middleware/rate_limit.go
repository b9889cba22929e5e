package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/AnTengye/formrelay/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per client in fixed windows that start at
// each client's first request
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	rate    int           // requests per window
	window  time.Duration // time window
	now     func() time.Time
}

type clientWindow struct {
	start time.Time
	count int
}

// NewRateLimiter creates a new rate limiter. A rate of 0 or less disables limiting.
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientWindow),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// Allow records a request from key and reports whether it is within the limit
func (l *RateLimiter) Allow(key string) bool {
	if l.rate <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.pruneLocked(now)
		l.clients[key] = &clientWindow{start: now, count: 1}
		return true
	}
	if w.count >= l.rate {
		return false
	}
	w.count++
	return true
}

// pruneLocked drops clients whose window has passed
func (l *RateLimiter) pruneLocked(now time.Time) {
	for key, w := range l.clients {
		if now.Sub(w.start) >= l.window {
			delete(l.clients, key)
		}
	}
}

// RateLimit middleware limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if limiter.Allow(clientIP) {
			c.Next()
			return
		}

		logger.Warn(c.Request.Context(), "rate limit exceeded", "client_ip", clientIP)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Rate limit exceeded. Please try again later.",
		})
	}
}
