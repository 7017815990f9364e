package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trentmillar/plex-file-namer/internal/batch"
	"github.com/trentmillar/plex-file-namer/internal/cli"
	"github.com/trentmillar/plex-file-namer/internal/config"
	"github.com/trentmillar/plex-file-namer/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		naming namingFlags
		output outputFlags
		settle time.Duration
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Rename video files as they arrive",
		Long: `Watch DIR and its subdirectories and rename each new video file once it
has stopped changing. Renames are not confirmed; use --dry-run to only log
the planned names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			exec, err := executor(cfg, output)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			engine, err := ctx.newEngine(cmd, naming, store)
			if err != nil {
				return err
			}
			driver, err := ctx.newDriver(cmd, engine, naming, exec, !dryRun)
			if err != nil {
				return err
			}
			driver.WithJournal(store)

			out := cmd.OutOrStdout()
			w := watch.New(driver, driver.Extensions(), logger).
				WithSettle(settle).
				OnResult(func(r batch.Result) { cli.ResultLine(out, r) })
			fmt.Fprintln(out, cli.Label("Watching", cli.Path(root)))
			return w.Run(cmd.Context(), root)
		},
	}

	naming.register(cmd)
	output.register(cmd)
	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "How long a new file must stay unchanged before it is renamed")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log planned names without renaming")
	return cmd
}
