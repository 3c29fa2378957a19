package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_UpdateResetsQuota(t *testing.T) {
	l := NewRateLimiter(2, time.Minute)
	clock := time.Now()
	l.now = func() time.Time { return clock }
	r := newEngine(l.Handler())

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "").Code)

	l.Update(0, 0)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, "").Code, "limit disabled after reload")
	}

	l.Update(1, time.Hour)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "").Code)
}

func TestRateLimiter_SweepDropsIdleVisitors(t *testing.T) {
	l := NewRateLimiter(10, time.Minute)
	clock := time.Now()
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("a"))
	clock = clock.Add(2 * time.Minute)
	assert.True(t, l.allow("b"))

	clock = clock.Add(90 * time.Second)
	l.sweep()
	assert.NotContains(t, l.visitors, "a")
	assert.Contains(t, l.visitors, "b")
}

func TestCORS_OriginsReload(t *testing.T) {
	origins := NewOrigins([]string{"https://app.example.com/"})
	r := newEngine(CORS(origins))

	w := get(r, "https://app.example.com")
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, get(r, "https://evil.example.com").Header().Get("Access-Control-Allow-Origin"))

	origins.Set([]string{"https://evil.example.com"})
	assert.Empty(t, get(r, "https://app.example.com").Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "https://evil.example.com", get(r, "https://evil.example.com").Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	pre := httptest.NewRecorder()
	r.ServeHTTP(pre, req)
	assert.Equal(t, http.StatusNoContent, pre.Code)
}
