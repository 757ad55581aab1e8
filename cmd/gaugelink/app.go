package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gaugelink.hydrology.org/internal/app"
	"gaugelink.hydrology.org/internal/appconf"
	"gaugelink.hydrology.org/internal/export"
	"gaugelink.hydrology.org/internal/geo"
	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/pipeline"
	"gaugelink.hydrology.org/internal/restapi"
	"gaugelink.hydrology.org/internal/webui"

	"github.com/gosuri/uiprogress"
)

// BuildApplication creates the Application with its logger and metrics
// registry. Verbose runs log at debug level.
func BuildApplication(runCfg *appconf.RunConfig) *app.Application {
	level := slog.LevelInfo
	if runCfg.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)
	slog.SetDefault(logger)

	return app.New(runCfg.ToAppConfig(), runCfg, logger)
}

// Execute loads the inputs, runs the pipeline and publishes the result on
// coreApp. When showProgress is set, a progress bar tracks the matcher.
func Execute(ctx context.Context, coreApp *app.Application, showProgress bool) (*pipeline.Result, error) {
	runCfg := coreApp.RunConfig

	hydat, err := pipeline.OpenHydat(runCfg)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(hydat, coreApp.Logger, "hydat_database")

	in, err := pipeline.Load(ctx, runCfg, hydat, coreApp.Logger, coreApp.Metrics)
	if err != nil {
		return nil, err
	}

	opts := pipeline.OptionsFromConfig(runCfg)
	opts.Logger = coreApp.Logger
	opts.Metrics = coreApp.Metrics
	if showProgress {
		progress := newProgressBar()
		defer progress.stop()
		opts.Progress = progress.update
	}

	res, err := pipeline.Run(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	coreApp.SetResult(res)

	if runCfg.Verbose {
		res.Network.Dump(os.Stderr, false)
	}
	return res, nil
}

// progressBar adapts the matcher's progress callback to a uiprogress bar
// created on the first update, once the origin count is known.
type progressBar struct {
	bar *uiprogress.Bar
}

func newProgressBar() *progressBar {
	return &progressBar{}
}

func (p *progressBar) update(done, total int) {
	if p.bar == nil {
		uiprogress.Start()
		p.bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
		p.bar.PrependFunc(func(b *uiprogress.Bar) string {
			return fmt.Sprintf("origins %d/%d", b.Current(), total)
		})
	}
	_ = p.bar.Set(done)
}

func (p *progressBar) stop() {
	if p.bar != nil {
		uiprogress.Stop()
	}
}

// WriteOutputs writes the configured CSV and GeoJSON files.
func WriteOutputs(res *pipeline.Result, runCfg *appconf.RunConfig, logger *slog.Logger) error {
	if path := runCfg.Output.CSV; path != "" {
		if err := writeFile(path, logger, func(f *os.File) error {
			return export.WriteCSV(f, res.Matches)
		}); err != nil {
			return fmt.Errorf("failed to write CSV output: %w", err)
		}
	}

	if path := runCfg.Output.GeoJSON; path != "" {
		var proj *geo.UTMProjector
		if runCfg.Output.WGS84 {
			p, err := geo.NewUTMProjector(runCfg.UTM.Zone, runCfg.UTM.Northern)
			if err != nil {
				return err
			}
			proj = &p
		}
		if err := writeFile(path, logger, func(f *os.File) error {
			return export.WriteGeoJSON(f, res.Matches, proj)
		}); err != nil {
			return fmt.Errorf("failed to write GeoJSON output: %w", err)
		}
	}
	return nil
}

func writeFile(path string, logger *slog.Logger, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		logging.SafeCloseWithLogging(f, logger, path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logging.LogOperation(logger, "output_written", slog.String("path", path))
	return nil
}

// CreateServer creates and configures the HTTP server with routes and middleware.
// Applies request ids and security headers, and adds request logging.
func CreateServer(coreApp *app.Application, api *restapi.RestAPI) *http.Server {
	mux := http.NewServeMux()
	api.SetRoutes(mux)

	webUI := &webui.WebUI{Application: coreApp}
	webUI.SetWebUIRoutes(mux)

	// Wrap with request id and security middleware
	secureHandler := api.WithSecurityHeaders(restapi.RequestIDMiddleware(mux))

	// Add request logging middleware (outermost)
	requestLogMiddleware := restapi.NewRequestLoggingMiddleware(logging.ForComponent(coreApp.Logger, "http"))
	handler := requestLogMiddleware(secureHandler)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", coreApp.Config.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}
}

// Run manages the server lifecycle with graceful shutdown.
// Starts the server in a goroutine, waits for ctx to end or a shutdown signal
// (SIGINT, SIGTERM), and performs graceful shutdown with a 30-second timeout.
func Run(ctx context.Context, srv *http.Server, api *restapi.RestAPI, logger *slog.Logger) error {
	logger.Info("starting server", "addr", srv.Addr)

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Channel to capture server errors
	serverErrors := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if api != nil {
		api.Shutdown()
	}

	logger.Info("server exited")
	return nil
}

// exitCode maps a run error to the process exit status: 2 for bad input,
// 1 for anything else.
func exitCode(err error) int {
	if errors.Is(err, models.ErrInvalidInput) {
		return 2
	}
	return 1
}
