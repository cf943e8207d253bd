package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"budget/internal/cli"
	"budget/internal/config"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger = logger.WithComponent(log.ComponentApp)
	logger.Info("Starting budget server",
		log.FieldOperation, log.OpStartup,
		"backend", appConfig.DataBackend,
		"publishing", appConfig.PublishingEnabled())

	parent, stop := context.WithCancel(cmd.Context())
	defer stop()

	res, err := cli.InitBackend(parent, logger, appConfig)
	if err != nil {
		return err
	}
	svc := services.New(res.Store, res.Publisher, nil)

	if appConfig.CurrenciesFile != "" {
		if err := seedCurrencies(parent, svc, appConfig.CurrenciesFile); err != nil {
			res.Cleanup()
			return err
		}
	}

	srv := apphttp.NewServer(serverConfig(appConfig), svc, nil, logger)

	ctx, done := cli.GracefulShutdown(parent, logger, shutdownTimeout, func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), res.Cleanup())
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	<-done

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

func serverConfig(cfg *config.Config) apphttp.Config {
	return apphttp.Config{
		Addr:           ":" + cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		CacheTTL:       cfg.CacheTTL,
		CacheSize:      cfg.CacheSize,
	}
}
