package restapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (api *RestAPI) metricsHandler() http.Handler {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if api.Registry != nil {
		gatherer = api.Registry
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
