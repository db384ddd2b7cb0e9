package middleware

import (
	"net/http"
	"sync"
	"time"

	"pvcaisse/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// windowLimiter counts requests per client IP in fixed windows.
type windowLimiter struct {
	mu      sync.Mutex
	entries map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	count int
	end   time.Time
}

func newWindowLimiter(limit int, period time.Duration) *windowLimiter {
	l := &windowLimiter{
		entries: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
	registerForPurge(l)
	return l
}

// allow records one request for ip and reports whether it is within the
// limit, along with the end of the current window.
func (l *windowLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[ip]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.period)}
		l.entries[ip] = w
	}
	w.count++
	return w.count <= l.limit, w.end
}

func (l *windowLimiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for ip, w := range l.entries {
		if now.After(w.end) {
			delete(l.entries, ip)
			n++
		}
	}
	return n
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	l := newWindowLimiter(20, time.Minute)
	return func(c *gin.Context) {
		if ok, _ := l.allow(c.ClientIP()); !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Trop de tentatives de connexion. Réessayez dans une minute."))
			return
		}
		c.Next()
	}
}

// RateLimiter limits every client IP to limit requests per window.
func RateLimiter(limit int, period time.Duration) gin.HandlerFunc {
	l := newWindowLimiter(limit, period)
	return func(c *gin.Context) {
		ok, end := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", end.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Trop de requêtes. Réessayez dans un instant."))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Expired windows are dropped every 5 minutes so the maps do not keep every
// IP ever seen.

const purgeInterval = 5 * time.Minute

var (
	limiters     []*windowLimiter
	limitersMu   sync.Mutex
	purgeStarted sync.Once
)

func registerForPurge(l *windowLimiter) {
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	purgeStarted.Do(func() { go purgeExpiredEntries() })
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		limitersMu.Lock()
		purged := 0
		for _, l := range limiters {
			purged += l.purge()
		}
		limitersMu.Unlock()
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter maps purged")
		}
	}
}
