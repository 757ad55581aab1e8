package restapi

import (
	"net/http"
	"net/http/pprof"

	"gaugelink.hydrology.org/internal/appconf"
)

// originMaxAge is the Cache-Control lifetime of per-origin documents. A run's
// results never change once published.
const originMaxAge = 300

// rateLimited combines rate limiting and compression
func rateLimited(api *RestAPI, finalHandler http.HandlerFunc) http.Handler {
	// Apply compression first (innermost)
	compressedHandler := CompressionMiddleware(finalHandler)

	// Then rate limiting - use the shared rate limiter instance
	if api.rateLimiter == nil {
		// Fallback for tests that don't use NewRestAPI constructor
		return compressedHandler
	}
	return api.rateLimiter.Handler()(compressedHandler)
}

func registerPprofHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

// SetRoutes registers all API endpoints with compression applied per route
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	// Health check and metrics endpoints - not rate limited
	mux.HandleFunc("GET /healthz", api.healthHandler)
	mux.Handle("GET /metrics", api.metricsHandler())

	mux.Handle("GET /api/matches.json", CacheControlMiddleware(0, rateLimited(api, api.matchesHandler)))
	mux.Handle("GET /api/integrity.json", CacheControlMiddleware(0, rateLimited(api, api.integrityHandler)))
	mux.Handle("GET /api/origin/{id}", CacheControlMiddleware(originMaxAge, rateLimited(api, api.originHandler)))

	if api.Config.Env == appconf.Development {
		registerPprofHandlers(mux)
	}
}

// SetupAPIRoutes creates and configures the API router with request ids and
// security headers applied globally
func (api *RestAPI) SetupAPIRoutes() http.Handler {
	// Create the base router
	mux := http.NewServeMux()

	// Register all API routes
	api.SetRoutes(mux)

	return RequestIDMiddleware(api.WithSecurityHeaders(mux))
}
