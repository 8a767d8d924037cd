package middlewares

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/portfolio-app/utils"
)

func TestMain(m *testing.M) {
	utils.SilenceLogger()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")
	os.Exit(m.Run())
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	admin := r.Group("/admin", AuthMiddleware(), RequireRole("admin"))
	admin.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": c.GetString("role")})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := setupAuthRouter()
	adminToken, err := utils.GenerateToken(1, "admin")
	require.NoError(t, err)
	editorToken, err := utils.GenerateToken(2, "editor")
	require.NoError(t, err)

	tests := []struct {
		name   string
		url    string
		header string
		want   int
	}{
		{"missing token", "/admin/me", "", http.StatusUnauthorized},
		{"bad token", "/admin/me", "Bearer nope", http.StatusUnauthorized},
		{"header token", "/admin/me", "Bearer " + adminToken, http.StatusOK},
		{"query token", "/admin/me?token=" + adminToken, "", http.StatusOK},
		{"wrong role", "/admin/me", "Bearer " + editorToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequestStatsCountsErrors(t *testing.T) {
	stats := NewRequestStats()
	r := gin.New()
	r.Use(LoggerMiddleware(stats))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/ok", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	window := stats.Swap()
	assert.Equal(t, int64(3), window.Requests)
	assert.Equal(t, int64(1), window.Errors)
	assert.Zero(t, stats.Swap().Requests)
}

func TestRateLimiterPerIP(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(time.Hour, 2).RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares("https://example.com"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeadersForAPI(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("X-XSS-Protection"))
	// plain HTTP never advertises HSTS
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiterCleanupDropsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 2)
	rl.get("10.0.0.1")
	rl.get("10.0.0.2")

	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-rl.ttl - time.Second)
	rl.mu.Unlock()

	// a request alone never sweeps
	rl.get("10.0.0.3")
	assert.Equal(t, 3, rl.size())

	assert.Equal(t, 1, rl.Cleanup(time.Now()))
	assert.Equal(t, 2, rl.size())
	_, ok := rl.visitors["10.0.0.1"]
	assert.False(t, ok)
}

func TestRateLimiterJanitorRunsUntilStopped(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 2)
	rl.ttl = 0
	rl.get("10.0.0.1")

	rl.StartJanitor(5 * time.Millisecond)
	rl.StartJanitor(5 * time.Millisecond)
	assert.Eventually(t, func() bool { return rl.size() == 0 }, time.Second, 5*time.Millisecond)

	rl.Stop()
	rl.Stop()
	rl.get("10.0.0.2")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rl.size())
}
