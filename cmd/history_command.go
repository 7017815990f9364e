package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/trentmillar/plex-file-namer/internal/cli"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		runID string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent renames from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.History(cmd.Context(), runID, limit)
			if err != nil {
				return err
			}
			return cli.History(cmd.OutOrStdout(), entries, time.Now())
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only show entries from this run ID")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}
