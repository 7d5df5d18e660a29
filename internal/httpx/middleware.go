package httpx

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

type callerKey struct{}

func withCaller(ctx context.Context, c catalog.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// callerFrom returns the authenticated caller, or the anonymous zero value.
func callerFrom(ctx context.Context) catalog.Caller {
	c, _ := ctx.Value(callerKey{}).(catalog.Caller)
	return c
}

// authenticate resolves a bearer token into the request's caller. Requests
// without a bearer header stay anonymous; a bad token is rejected outright.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			next.ServeHTTP(w, r)
			return
		}
		c, err := h.Auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), c)))
	})
}

// gate admits a request if its caller holds the route's capability. Record
// ownership is checked later by the handler.
func (h *Handler) gate(need catalog.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := catalog.Admit(callerFrom(r.Context()), need); err != nil {
			h.writeError(w, r, err)
			return
		}
		next(w, r)
	}
}

// clientLimiter throttles per client IP with a token bucket each.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{limit: rate.Limit(rps), burst: burst, clients: map[string]*rate.Limiter{}}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.clients[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (h *Handler) throttle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next(w, r)
			return
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !h.limiter.allow(host) {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, detail{Detail: "Request was throttled."})
			return
		}
		next(w, r)
	}
}

// requestLogger logs one line per request after it completes.
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
				"remote":      r.RemoteAddr,
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("http request")
				return
			}
			entry.Info("http request")
		})
	}
}
