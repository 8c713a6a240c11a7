// Command sentinel runs the constituency intelligence pipeline: the
// HTTP API, one-shot ingestion runs and scheduled rescoring.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voterpulse/sentinel/internal/bootstrap"
	"github.com/voterpulse/sentinel/internal/config"
	"github.com/voterpulse/sentinel/internal/logger"
)

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "sentinel",
		Short: "Constituency news intelligence pipeline",
		Long: `Sentinel ingests political news and social content per constituency,
classifies it, tracks grievance issues, derives attack points and
maintains vulnerability scores.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(httpdCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rescoreCmd)
	rootCmd.AddCommand(reprocessCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// setup loads config, builds the logger and wires the application.
func setup() (*bootstrap.App, error) {
	cfg, err := config.Load(config.Path(cfgFile))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	app, err := bootstrap.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return app, nil
}
