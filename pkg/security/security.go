package security

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var allowHeaders = strings.Join([]string{
	"Content-Type", "Content-Length", "Accept", "Authorization", "Origin",
	"Cache-Control", "X-Requested-With", "X-Session-ID",
}, ", ")

// Origins CORS 白名单，配置热加载时整体替换
type Origins struct {
	mu  sync.RWMutex
	set map[string]bool
}

func NewOrigins(origins []string) *Origins {
	o := &Origins{}
	o.Set(origins)
	return o
}

func (o *Origins) Set(origins []string) {
	set := make(map[string]bool, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			set[origin] = true
		}
	}
	o.mu.Lock()
	o.set = set
	o.mu.Unlock()
}

func (o *Origins) Allowed(origin string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.set[origin]
}

// CORS 仅对白名单 Origin 回写允许头；预检请求直接 204
func CORS(origins *Origins) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && origins.Allowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Secure 常用安全响应头
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端 IP 的令牌桶，Update 后所有访客按新配额重新计数
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	window   time.Duration
	visitors map[string]*visitor
	now      func() time.Time
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	l := &RateLimiter{visitors: map[string]*visitor{}, now: time.Now}
	l.Update(maxRequests, window)
	return l
}

// Update 非正数配置表示不限流
func (l *RateLimiter) Update(maxRequests int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if maxRequests <= 0 || window <= 0 {
		l.limit, l.burst, l.window = rate.Inf, 0, time.Minute
	} else {
		l.limit, l.burst, l.window = rate.Every(window/time.Duration(maxRequests)), maxRequests, window
	}
	l.visitors = map[string]*visitor{}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// sweep 清理超过三个窗口未出现的访客
func (l *RateLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	expiry := 3 * l.window
	if expiry < time.Minute {
		expiry = time.Minute
	}
	now := l.now()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > expiry {
			delete(l.visitors, key)
		}
	}
}

// Run 每分钟清理一次访客，stop 关闭后退出
func (l *RateLimiter) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-stop:
			return
		}
	}
}

func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many requests"})
			return
		}
		c.Next()
	}
}

// MaxBodySize 限制请求体大小，上传接口需预留 multipart 开销
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "request body too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
