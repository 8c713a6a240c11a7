package main

import (
	"github.com/spf13/cobra"
)

var runConstituencyID string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one ingestion and scoring run, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		if runConstituencyID != "" {
			return app.Pipeline.RunConstituency(ctx, runConstituencyID)
		}
		return app.Pipeline.RunAll(ctx)
	},
}

func init() {
	runCmd.Flags().StringVar(&runConstituencyID, "constituency", "", "limit the run to one constituency id")
}
