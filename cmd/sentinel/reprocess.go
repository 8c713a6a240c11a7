package main

import (
	"github.com/spf13/cobra"
)

var reprocessBatch int

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Reclassify the backlog of stored but unclassified content, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		defer app.Close()

		return app.Pipeline.Reprocess(cmd.Context(), reprocessBatch)
	},
}

func init() {
	reprocessCmd.Flags().IntVar(&reprocessBatch, "batch", 100, "items per reprocessing batch")
}
