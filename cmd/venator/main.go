package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/app"
	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths // later files override earlier ones
	runOnce      = flag.Bool("once", false, "Run the pipeline once and exit")
	phases       = flag.String("phases", "", "Phases to run: api, web or both (overrides config)")
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion || *showVersionV {
		fmt.Printf("Venator version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	common.InstallCrashHandler(common.LogsDir())
	defer common.RecoverWithCrashFile()

	if len(configFiles) == 0 {
		if _, err := os.Stat("venator.toml"); err == nil {
			configFiles = append(configFiles, "venator.toml")
		} else if _, err := os.Stat("deployments/local/venator.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/venator.toml")
		}
	}

	// Startup order: config (defaults -> files -> env), CLI overrides, logger, banner
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *serverPort, *serverHost, *phases)
	if err := config.Validate(); err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Strs("config_files", configFiles).
		Str("storage_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Strs("phases", config.PhaseList()).
		Bool("scheduler", config.Scheduler.Enabled).
		Msg("Resolved configuration")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}

	if *runOnce {
		code := runPipelineOnce(application, logger)
		if err := application.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close application")
		}
		os.Exit(code)
	}

	serve(application, logger)
}

// serve runs the scheduler and HTTP API until SIGINT or SIGTERM
func serve(application *app.App, logger arbor.ILogger) {
	defer application.Close()

	if err := application.StartScheduler(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
		return
	}

	var srv *server.Server
	if application.Config.Server.Enabled {
		srv = server.New(application)
		common.SafeGo(logger, "http-server", func() {
			if err := srv.Start(); err != nil {
				logger.Error().Err(err).Msg("Server failed")
			}
		})
		logger.Info().
			Str("url", fmt.Sprintf("http://%s:%d", application.Config.Server.Host, application.Config.Server.Port)).
			Msg("Server ready - Press Ctrl+C to stop")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Server shutdown failed")
		}
	}

	logger.Info().Msg("Venator stopped")
}
