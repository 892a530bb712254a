package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"collect/internal/adapters/http/middleware"
	"collect/internal/adapters/http/perf"
	formStore "collect/internal/adapters/storage/form"
	instanceStore "collect/internal/adapters/storage/instance"
)

// Stores holds all storage dependencies.
type Stores struct {
	FormStore     formStore.Store
	InstanceStore instanceStore.Store
}

// Options configures the middleware chain.
type Options struct {
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
	// RateLimitPerSecond is the per-client request budget; zero selects DefaultRateLimitPerSecond.
	RateLimitPerSecond int
	SlowRequestMs      int
}

// DefaultRateLimitPerSecond is the per-client limit when Options leaves it unset.
const DefaultRateLimitPerSecond = 20

// Global stores instance (set by NewMux)
var stores *Stores

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

var validate = validator.New(validator.WithRequiredStructEnabled())

// timeNow is swapped in tests.
var timeNow = time.Now

// NewMux wires HTTP handlers for the app. The rate limiter's sweeper stops when ctx is done.
func NewMux(ctx context.Context, s *Stores, collector *perf.Collector, opts Options) http.Handler {
	stores = s
	perfCollector = collector

	mux := http.NewServeMux()
	registerRoutes(mux)

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = DefaultRateLimitPerSecond
	}
	limiter := middleware.NewRateLimiter(ctx, rate, time.Second)

	// Outermost last: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequestMs),
	)
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/forms", handleImportForm)
	mux.HandleFunc("GET /api/forms", handleListForms)
	mux.HandleFunc("GET /api/forms/{id}", handleGetForm)
	mux.HandleFunc("POST /api/forms/{id}/delete", handleDeleteForm)

	mux.HandleFunc("POST /api/instances", handleSaveInstance)
	mux.HandleFunc("GET /api/instances", handleListInstances)
	mux.HandleFunc("GET /api/instances/by-path", handleGetInstanceByPath)
	mux.HandleFunc("GET /api/instances/{id}", handleGetInstance)
	mux.HandleFunc("POST /api/instances/{id}/delete", handleDeleteInstance)

	mux.HandleFunc("GET /api/perf", handlePerf)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
