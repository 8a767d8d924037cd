package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	visitors map[string]*visitor
	mu       sync.Mutex

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewRateLimiter(every time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Every(every),
		burst:    burst,
		ttl:      10 * time.Minute,
		visitors: make(map[string]*visitor),
	}
}

// NewStrictRateLimiter is for login and the public forms: 5 requests per minute per IP.
// Idle visitors are swept once a minute for the life of the process.
func NewStrictRateLimiter() gin.HandlerFunc {
	rl := NewRateLimiter(12*time.Second, 5)
	rl.StartJanitor(time.Minute)
	return rl.RateLimit()
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops visitors not seen within the ttl and returns how many were removed.
func (rl *RateLimiter) Cleanup(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Cleanup every interval until Stop. Calling it twice is a no-op.
func (rl *RateLimiter) StartJanitor(interval time.Duration) {
	rl.mu.Lock()
	if rl.stopCh != nil {
		rl.mu.Unlock()
		return
	}
	rl.stopCh = make(chan struct{})
	rl.doneCh = make(chan struct{})
	stop, done := rl.stopCh, rl.doneCh
	rl.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				rl.Cleanup(now)
			case <-stop:
				return
			}
		}
	}()
}

func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	stop, done := rl.stopCh, rl.doneCh
	rl.stopCh, rl.doneCh = nil, nil
	rl.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "Too many requests, please wait a moment",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
