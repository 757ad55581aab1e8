package restapi

import (
	"time"

	"gaugelink.hydrology.org/internal/app"

	"github.com/bluele/gcache"
)

// originCacheTTL bounds how long a rendered origin document is reused.
const originCacheTTL = 10 * time.Minute

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
	originCache gcache.Cache
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
// and per-origin response cache.
func NewRestAPI(app *app.Application) *RestAPI {
	api := &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
	}
	if app.Config.CacheSize > 0 {
		api.originCache = gcache.New(app.Config.CacheSize).
			LRU().
			Expiration(originCacheTTL).
			Build()
	}
	return api
}

// Shutdown stops the rate limiter's cleanup goroutine and drops cached
// responses. It is safe to call more than once.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
	if api.originCache != nil {
		api.originCache.Purge()
	}
}
