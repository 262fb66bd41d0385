// Command mc3server runs the pipeline once and then serves the processed
// series to the summit dashboard over HTTP.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/UdayIND/MC3-Summit/internal/app"
	"github.com/UdayIND/MC3-Summit/internal/config"
	"github.com/UdayIND/MC3-Summit/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	port := flag.Int("port", 0, "listen port (overrides config)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	rt, err := app.NewRuntime(cfg, os.Stdout, logger)
	if err != nil {
		logger.Error("Failed to initialize runtime", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := app.NewApplication(rt)
	if err != nil {
		logger.Error("Failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
