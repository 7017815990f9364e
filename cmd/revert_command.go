package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/trentmillar/plex-file-namer/internal/cli"
	"github.com/trentmillar/plex-file-namer/internal/config"
	"github.com/trentmillar/plex-file-namer/internal/database"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

func newRevertCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "revert DIR",
		Short: "Restore original filenames from backup notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			results, err := renamer.Revert(root, dryRun)
			if err != nil {
				return err
			}
			cli.RevertSummary(cmd.OutOrStdout(), results, dryRun)
			if dryRun {
				return nil
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runID := uuid.NewString()
			for _, r := range results {
				if r.Status != renamer.Reverted {
					continue
				}
				entry := database.JournalEntry{
					RunID:        runID,
					OperationID:  uuid.NewString(),
					OriginalPath: r.From,
					NewPath:      r.To,
					Mode:         string(renamer.ModeMove),
					Status:       database.JournalReverted,
				}
				if err := store.Record(cmd.Context(), entry); err != nil {
					logger.Warn("journal write failed", "path", r.From, "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be restored without renaming")
	return cmd
}
