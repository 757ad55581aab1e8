package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"gaugelink.hydrology.org/internal/appconf"
	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/restapi"

	"github.com/mattn/go-isatty"
)

func main() {
	var configPath string
	var envFlag string
	var verbose bool
	var serve bool
	var port int
	var workers int
	var progress bool

	// Parse command-line flags
	flag.StringVar(&configPath, "config", "gaugelink.yaml", "Path to the YAML run configuration")
	flag.StringVar(&envFlag, "env", "", "Environment (development|test|production), overrides the config file")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging and a network summary")
	flag.BoolVar(&serve, "serve", false, "Serve the results over HTTP after the run")
	flag.IntVar(&port, "port", 0, "API server port, overrides the config file")
	flag.IntVar(&workers, "workers", 0, "Concurrent origin traversals, overrides the config file")
	flag.BoolVar(&progress, "progress", isatty.IsTerminal(os.Stderr.Fd()), "Show a progress bar while matching")
	flag.Parse()

	runCfg, err := appconf.LoadFromFile(configPath)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlagOverrides(runCfg, envFlag, verbose, serve, port, workers)

	coreApp := BuildApplication(runCfg)

	ctx := context.Background()
	res, err := Execute(ctx, coreApp, progress && !runCfg.Verbose)
	if err != nil {
		logging.LogError(coreApp.Logger, "matching run failed", err)
		os.Exit(exitCode(err))
	}

	if err := WriteOutputs(res, runCfg, coreApp.Logger); err != nil {
		logging.LogError(coreApp.Logger, "failed to write outputs", err)
		os.Exit(1)
	}

	if !runCfg.Server.Enabled {
		return
	}

	api := restapi.NewRestAPI(coreApp)
	srv := CreateServer(coreApp, api)
	if err := Run(ctx, srv, api, coreApp.Logger); err != nil {
		coreApp.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// applyFlagOverrides lets explicitly set flags win over the config file.
func applyFlagOverrides(runCfg *appconf.RunConfig, envFlag string, verbose, serve bool, port, workers int) {
	if envFlag != "" {
		runCfg.Env = appconf.EnvFlagToEnvironment(envFlag).String()
	}
	if verbose {
		runCfg.Verbose = true
	}
	if serve {
		runCfg.Server.Enabled = true
	}
	if port > 0 {
		runCfg.Server.Port = port
	}
	if workers > 0 {
		runCfg.Matching.Workers = workers
	}
}
