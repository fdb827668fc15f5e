package folio

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter rate-limits failed login attempts per IP address. Each IP
// gets a token bucket holding max attempts that refills fully over window.
type LoginLimiter struct {
	mu      sync.Mutex
	buckets map[string]*loginBucket
	limit   rate.Limit
	burst   int
	window  time.Duration
	stop    chan struct{}
	once    sync.Once
}

type loginBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewLoginLimiter creates a LoginLimiter that allows max attempts per window.
// Call Close to stop its cleanup goroutine.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	l := &LoginLimiter{
		buckets: make(map[string]*loginBucket),
		limit:   rate.Every(window / time.Duration(max)),
		burst:   max,
		window:  window,
		stop:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *LoginLimiter) bucket(ip string) *rate.Limiter {
	b, ok := l.buckets[ip]
	if !ok {
		b = &loginBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = time.Now()
	return b.limiter
}

// cleanup drops buckets idle for longer than a window; they are full again
// by then, so forgetting them changes nothing.
func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-l.window)
			l.mu.Lock()
			for ip, b := range l.buckets {
				if b.seen.Before(cutoff) {
					delete(l.buckets, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Check reports whether ip may attempt a login without consuming a token.
func (l *LoginLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bucket(ip).Tokens() >= 1
}

// Record consumes a token for a failed attempt from ip.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bucket(ip).Allow()
}

// Close stops the cleanup goroutine.
func (l *LoginLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}
