// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter provides rate limiting using a sliding window algorithm.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	cleanup  time.Duration // how often to clean old entries
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a new rate limiter.
// limit: maximum requests allowed per duration
// duration: the time window for counting requests
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2,
	}
	go l.cleanupLoop()
	return l
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{
			count:     1,
			expiresAt: now.Add(l.duration),
		}
		return true
	}

	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}

// Reset clears the rate limit for a specific key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// cleanupLoop periodically removes expired entries to prevent memory leaks.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied
// requests), then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SessionLimiter throttles session establishment. It tracks both
// IP-based and per-user limits so a flood of attempts from one address
// and a targeted hammering of one account are both slowed down.
type SessionLimiter struct {
	ipLimiter   *Limiter
	userLimiter *Limiter
}

// NewSessionLimiter creates a limiter configured for session creation.
// Defaults: 20 attempts per IP per minute, 5 attempts per user per 5 minutes.
func NewSessionLimiter() *SessionLimiter {
	return &SessionLimiter{
		ipLimiter:   New(20, time.Minute),
		userLimiter: New(5, 5*time.Minute),
	}
}

// Check verifies if a session attempt should be allowed.
// Returns (allowed, reason) where reason explains why it was blocked.
func (sl *SessionLimiter) Check(r *http.Request, userID string) (bool, string) {
	ip := ClientIP(r)

	if !sl.ipLimiter.Allow(ip) {
		return false, "too many session attempts, wait a minute before trying again"
	}

	if userID != "" {
		if !sl.userLimiter.Allow(userID) {
			return false, "too many session attempts for this account, wait a few minutes"
		}
	}

	return true, ""
}

// ResetUser clears the per-user limit after a successful sign-in.
func (sl *SessionLimiter) ResetUser(userID string) {
	if userID != "" {
		sl.userLimiter.Reset(userID)
	}
}
