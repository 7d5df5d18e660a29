package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-catalog-api/internal/auth"
	"github.com/ariefcatur/go-catalog-api/internal/catalog"
	"github.com/ariefcatur/go-catalog-api/internal/metrics"
)

const (
	readTimeout  = 3 * time.Second
	writeTimeout = 5 * time.Second
)

// Handler serves the catalog resources.
type Handler struct {
	Store    catalog.Store
	Auth     *auth.Service
	Events   catalog.Publisher
	Log      *logrus.Entry
	PageSize int
	Service  string

	// AuthRateLimit throttles /auth/* per client IP; zero disables it.
	AuthRateLimit float64
	AuthRateBurst int

	limiter *clientLimiter
}

// NewRouter builds the base router. m may be nil, in which case /metrics is
// not served.
func NewRouter(log *logrus.Entry, m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)
	if m != nil {
		r.Use(m.Instrument)
	}
	r.Use(middleware.Timeout(15 * time.Second))
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
