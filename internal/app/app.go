package app

import (
	"log/slog"
	"sync"

	"gaugelink.hydrology.org/internal/appconf"
	"gaugelink.hydrology.org/internal/metrics"
	"gaugelink.hydrology.org/internal/pipeline"

	"github.com/prometheus/client_golang/prometheus"
)

// Application holds the dependencies shared by the CLI and the HTTP API.
type Application struct {
	Config    appconf.Config
	RunConfig *appconf.RunConfig
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics

	resultMutex sync.RWMutex // Protects result
	result      *pipeline.Result
}

// New creates an Application with a private metrics registry.
func New(cfg appconf.Config, runCfg *appconf.RunConfig, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	return &Application{
		Config:    cfg,
		RunConfig: runCfg,
		Logger:    logger,
		Registry:  reg,
		Metrics:   metrics.New(reg),
	}
}

// Result returns the most recent completed run, or nil before the first.
func (app *Application) Result() *pipeline.Result {
	app.resultMutex.RLock()
	defer app.resultMutex.RUnlock()
	return app.result
}

// SetResult publishes a completed run. Readers holding the previous result
// keep a consistent view.
func (app *Application) SetResult(res *pipeline.Result) {
	app.resultMutex.Lock()
	defer app.resultMutex.Unlock()
	app.result = res
}

// Ready reports whether a run has completed.
func (app *Application) Ready() bool {
	return app.Result() != nil
}
