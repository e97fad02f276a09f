package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	rateLimitCleanupInterval = time.Minute
	rateLimitClientTTL       = 10 * time.Minute
)

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitClient
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*rateLimitClient),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether key may make another request now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, found := l.clients[key]
	if !found {
		client = &rateLimitClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = client
	}
	client.lastSeen = l.now()
	return client.limiter.AllowN(client.lastSeen, 1)
}

// Cleanup drops clients idle for longer than the TTL until ctx is done.
func (l *RateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(rateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evict(rateLimitClientTTL)
		case <-ctx.Done():
			return
		}
	}
}

func (l *RateLimiter) evict(ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, client := range l.clients {
		if now.Sub(client.lastSeen) > ttl {
			delete(l.clients, ip)
		}
	}
}

// RateLimit rejects requests from a client IP once its bucket is empty.
func RateLimit(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please wait a moment and try again.",
			})
			return
		}
		c.Next()
	}
}
