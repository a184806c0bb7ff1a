package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/vannadii/rustygpt-go/internal/config"
)

// limiterSet holds one token bucket per key (user id, falling back to
// remote address for unauthenticated requests), lazily created and never
// evicted - bounded in practice by the number of distinct active callers.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	return &limiterSet{limiters: make(map[string]*rate.Limiter), rps: rate.Limit(rps), burst: burst}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(s.rps, s.burst)
		s.limiters[key] = l
	}
	return l
}

// RateLimit applies distinct read and write token buckets per caller,
// keyed by authenticated user id when available and by remote address
// otherwise. GET/HEAD/OPTIONS draw from the read bucket, everything else
// from the write bucket.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	reads := newLimiterSet(cfg.ReadRPS, cfg.ReadBurst)
	writes := newLimiterSet(cfg.WriteRPS, cfg.WriteBurst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if user, ok := UserFromContext(r.Context()); ok {
				key = user.ID
			}

			set := writes
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				set = reads
			}

			if !set.get(key).Allow() {
				writeAuthError(w, http.StatusTooManyRequests, "RGP.429", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
