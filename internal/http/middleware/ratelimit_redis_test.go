package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// Runs only against a real Redis: set REDIS_ADDR to enable.
func TestRedisRateLimit(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis-backed test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	InitRedisRateLimiter(addr, os.Getenv("REDIS_PASSWORD"), db)

	const limit = 3
	window := 2 * time.Second

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/mining/start", RedisRateLimit(limit, window), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	status := func(t *testing.T) int {
		t.Helper()
		res, err := http.Post(srv.URL+"/mining/start", "application/json", nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		return res.StatusCode
	}

	for i := 0; i < limit; i++ {
		if got := status(t); got != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, got)
		}
	}

	if got := status(t); got != http.StatusTooManyRequests {
		t.Fatalf("over-limit request: status = %d, want 429", got)
	}

	// a fresh window admits requests again
	time.Sleep(window + 100*time.Millisecond)
	if got := status(t); got != http.StatusOK {
		t.Fatalf("post-window request: status = %d, want 200", got)
	}
}

// Without an initialized client the limiter must fail open.
func TestRedisRateLimitFailOpen(t *testing.T) {
	saved := redisClient
	redisClient = nil
	defer func() { redisClient = saved }()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RedisRateLimit(1, time.Second), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	for i := 0; i < 5; i++ {
		res, err := http.Get(srv.URL + "/me")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200 without redis", i+1, res.StatusCode)
		}
	}
}
