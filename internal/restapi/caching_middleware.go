package restapi

import (
	"fmt"
	"net/http"
)

// CacheControlMiddleware sets Cache-Control for the wrapped route. A
// non-positive duration forbids caching. Responses vary by encoding because
// routes are compressed.
func CacheControlMiddleware(durationSeconds int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if durationSeconds > 0 {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", durationSeconds))
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		w.Header().Add("Vary", "Accept-Encoding")

		next.ServeHTTP(w, r)
	})
}
