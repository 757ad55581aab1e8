package restapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"gaugelink.hydrology.org/internal/models"

	"golang.org/x/time/rate"
)

// clientIdleTimeout is how long an unused client limiter is kept.
const clientIdleTimeout = 5 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies a token bucket per client address.
type RateLimitMiddleware struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewRateLimitMiddleware allows requestsPerInterval requests per interval for
// each client, with a burst of the same size. A non-positive rate disables
// limiting.
func NewRateLimitMiddleware(requestsPerInterval int, interval time.Duration) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		limit:   rate.Inf,
		burst:   1,
		clients: make(map[string]*clientLimiter),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if requestsPerInterval > 0 && interval > 0 {
		m.limit = rate.Every(interval / time.Duration(requestsPerInterval))
		m.burst = requestsPerInterval
	}
	go m.cleanup()
	return m
}

// Handler returns the middleware function.
func (m *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.limiterFor(clientKey(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				sendResponseWithStatus(w, http.StatusTooManyRequests,
					models.NewResponse(http.StatusTooManyRequests, nil, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (m *RateLimitMiddleware) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	<-m.done
}

func (m *RateLimitMiddleware) limiterFor(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (m *RateLimitMiddleware) cleanup() {
	defer close(m.done)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.evictIdle(now)
		}
	}
}

func (m *RateLimitMiddleware) evictIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.clients {
		if now.Sub(c.lastSeen) > clientIdleTimeout {
			delete(m.clients, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
