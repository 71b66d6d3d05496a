package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"prosimcorp.com/alerting/internal/api"
	"prosimcorp.com/alerting/internal/config"
	"prosimcorp.com/alerting/internal/globals"
	"prosimcorp.com/alerting/internal/history"
	"prosimcorp.com/alerting/internal/logging"
	"prosimcorp.com/alerting/internal/notify"
	"prosimcorp.com/alerting/internal/osclient"
	"prosimcorp.com/alerting/internal/query"
	"prosimcorp.com/alerting/internal/ruleset"
	"prosimcorp.com/alerting/internal/scheduler"
	"prosimcorp.com/alerting/internal/state"
)

// serveCmd builds the full service graph and runs it until an interrupt
// or terminate signal, the Go counterpart of the original main.py
// lifespan handler.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the alert scheduler and management API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configFile)
		},
	}
}

func runServe(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)
	globals.Configure(logger)
	logger.Info().Str("app", cfg.AppName).Str("version", cfg.AppVersion).Msg("starting alerting service")

	osClient, err := osclient.New(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build opensearch client")
		return err
	}

	loader := ruleset.New(cfg.AlertRulesDir, logger)
	executor := query.New(osClient, logger)
	states := state.New(osClient, cfg.AlertStateIndex, logger)
	notifier := notify.New(time.Duration(cfg.WebhookTimeout)*time.Second, cfg.WebhookRetries, logger)
	recorder := history.New(osClient, cfg.AlertHistoryIndex, logger)

	if err := states.Initialize(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to initialize alert state index")
		return err
	}
	if err := recorder.Initialize(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to initialize alert history index")
		return err
	}

	sched := scheduler.New(loader, executor, states, notifier, recorder, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to start scheduler")
		return err
	}

	stopWatch := make(chan struct{})
	ruleset.WatchHint(cfg.AlertRulesDir, logger, stopWatch)

	server := api.NewServer(api.Dependencies{
		Config:    cfg,
		Loader:    loader,
		States:    states,
		Recorder:  recorder,
		Scheduler: sched,
		OSClient:  osClient,
		Logger:    logger,
	})

	serveErrCh := make(chan error, 1)
	go func() {
		addr := cfg.APIHost + ":" + strconv.Itoa(cfg.APIPort)
		logger.Info().Str("addr", addr).Msg("management API listening")
		serveErrCh <- server.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErrCh:
		if err != nil {
			logger.Error().Err(err).Msg("management API stopped unexpectedly")
		}
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	close(stopWatch)
	sched.Stop()
	if err := server.Shutdown(); err != nil {
		logger.Warn().Err(err).Msg("error shutting down management API")
	}
	logger.Info().Msg("alerting service stopped")
	return nil
}
