package server

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Mikeolab/devops-real-app/internal/auth"
	"github.com/Mikeolab/devops-real-app/internal/config"
	"github.com/Mikeolab/devops-real-app/internal/metrics"
	"github.com/Mikeolab/devops-real-app/internal/ratelimit"
)

const rateLimitMessage = "Too many requests, please try again later."

// TokenVerifier decodes bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// bearerMiddleware gates next on a bearer token. In required mode a missing token is
// rejected; in optional mode it passes through without an identity. A token that is
// present but fails verification is rejected in both modes.
func bearerMiddleware(verifier TokenVerifier, mode string, next http.Handler) http.Handler {
	if verifier == nil || mode == "" || mode == config.AuthModeOff {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			if mode == config.AuthModeRequired {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "Missing token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

// rateLimitMiddleware applies limiter per client address and publishes the standard
// RateLimit-* response headers.
func rateLimitMiddleware(limiter *ratelimit.Limiter, trustProxy bool, m *metrics.Metrics, next http.Handler) http.Handler {
	policy := fmt.Sprintf("%d;w=%d", limiter.Max(), int(limiter.Window().Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := limiter.Allow(clientKey(r, trustProxy))
		reset := secondsUntil(decision.Reset)

		h := w.Header()
		h.Set("RateLimit-Policy", policy)
		h.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(reset))

		if !decision.Allowed {
			if m != nil {
				m.RateLimited()
			}
			h.Set("Retry-After", strconv.Itoa(reset))
			writeError(w, http.StatusTooManyRequests, rateLimitMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey derives the caller identity from its network address. Behind a trusted
// proxy the right-most X-Forwarded-For hop is used.
func clientKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			hops := strings.Split(fwd, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				if hop := strings.TrimSpace(hops[i]); hop != "" {
					return hop
				}
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func secondsUntil(t time.Time) int {
	secs := int(math.Ceil(time.Until(t).Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}
