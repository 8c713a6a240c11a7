package main

import (
	"github.com/spf13/cobra"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute vulnerability scores for all constituencies, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		defer app.Close()

		return app.Rescorer.RescoreAll(cmd.Context())
	},
}
