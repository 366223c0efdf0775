package handler

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/havensuites/concierge/internal/infra/cache"
	"github.com/havensuites/concierge/internal/session"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SessionTokenHeader carries the token of a session minted by the request.
const SessionTokenHeader = "X-Session-Token"

// SessionMiddleware resolves the chat session for the request.
//
// A Bearer token resumes the session it names; an invalid or expired one is
// a 401. Without a token a new session is minted and its token is returned
// in the X-Session-Token header (the chat handler also echoes it in the body).
func SessionMiddleware(tokens *session.TokenIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				id, token, err := tokens.NewSession()
				if err != nil {
					logger.Error("session: mint failed", zap.Error(err))
					writeError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				w.Header().Set(SessionTokenHeader, token)
				ctx = session.WithNewToken(session.WithID(ctx, id), token)
				logger.Debug("session: new", zap.String("session_id", id))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("session: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			id, err := tokens.Validate(parts[1])
			if err != nil {
				logger.Warn("session: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithID(ctx, id)))
		})
	}
}

// RateLimiter hands out one token bucket per client IP. Buckets of idle
// clients expire with the backing cache.
type RateLimiter struct {
	limiters *cache.InMemory[*rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per client IP, with bursts of
// up to perMinute. perMinute <= 0 disables limiting (returns nil).
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		limiters: cache.New[*rate.Limiter](10 * time.Minute),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

// Allow reports whether ip may make another request now.
func (l *RateLimiter) Allow(ip string) bool {
	lim := l.limiters.GetOrSet(ip, func() *rate.Limiter {
		return rate.NewLimiter(l.limit, l.burst)
	})
	return lim.Allow()
}

// Stop releases the limiter's background sweeper.
func (l *RateLimiter) Stop() {
	if l != nil {
		l.limiters.Stop()
	}
}

// RateLimitMiddleware rejects clients over their budget with 429.
// A nil limiter lets everything through.
func RateLimitMiddleware(l *RateLimiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !l.Allow(ip) {
				logger.Warn("rate limit exceeded", zap.String("ip", ip))
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr; middleware.RealIP has already
// applied any proxy headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
