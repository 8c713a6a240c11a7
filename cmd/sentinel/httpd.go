package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voterpulse/sentinel/internal/api"
	"github.com/voterpulse/sentinel/internal/logger"
)

var httpdCmd = &cobra.Command{
	Use:   "httpd",
	Short: "Serve the HTTP API with scheduled rescoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Rescorer.Start(app.Config.Service.RescoreSpec); err != nil {
			return err
		}
		defer app.Rescorer.Stop()

		server := api.NewServer(
			app.Config.Service.Port,
			app.Config.Service.Debug,
			app.Handlers,
			app.Registry,
			app.Logger,
		)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-quit:
			app.Logger.Info("received shutdown signal", logger.String("signal", sig.String()))
		}

		return server.Shutdown(context.Background())
	},
}
