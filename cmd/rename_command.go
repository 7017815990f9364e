package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trentmillar/plex-file-namer/internal/batch"
	"github.com/trentmillar/plex-file-namer/internal/cli"
	"github.com/trentmillar/plex-file-namer/internal/config"
	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

// runFlags choose between preview, script output and execution.
type runFlags struct {
	rename       bool
	dryRun       bool
	yes          bool
	script       string
	scriptOutput string
	limit        int
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&f.rename, "rename", false, "Rename files (default is a preview)")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Only show what would happen, even with --rename")
	flags.BoolVarP(&f.yes, "yes", "y", false, "Do not ask before each rename")
	flags.StringVar(&f.script, "script", "", "Write a bash, powershell or cmd script instead of renaming")
	flags.StringVar(&f.scriptOutput, "script-output", "", "Script file to write, - for stdout (default: rename.<ext>)")
	flags.IntVar(&f.limit, "limit", 50, "Maximum planned renames listed in the preview (0 for all)")
}

// execute reports whether files are really renamed.
func (f runFlags) execute() bool {
	return f.rename && !f.dryRun && f.script == ""
}

func newRenameCommand(ctx *commandContext) *cobra.Command {
	var (
		naming namingFlags
		output outputFlags
		run    runFlags
	)

	cmd := &cobra.Command{
		Use:   "rename PATH",
		Short: "Identify video files and rename them to Plex names",
		Long: `Identify every video file below PATH (or PATH itself) against TMDB and
show the Plex-style names. Pass --rename to apply them.`,
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
			shell, err := scriptShell(run.script)
			if err != nil {
				return err
			}
			exec, err := executor(cfg, output)
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
			driver, err := ctx.newDriver(cmd, engine, naming, exec, run.execute())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cli.IsTerminal(os.Stdout) {
				cli.Banner(out, version)
			}
			if run.execute() {
				attachExecution(cmd, driver, store, run.yes || cfg.Rename.SkipConfirmation)
			}

			summary, err := driver.Run(cmd.Context(), root)
			if err != nil {
				return err
			}
			return report(out, summary, exec, shell, run)
		},
	}

	naming.register(cmd)
	output.register(cmd)
	run.register(cmd)
	return cmd
}

func scriptShell(name string) (renamer.Shell, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	return renamer.ParseShell(name)
}

// attachExecution journals every executed rename and, unless skipConfirm,
// asks before each one.
func attachExecution(cmd *cobra.Command, driver *batch.Driver, journal batch.Journal, skipConfirm bool) {
	out := cmd.OutOrStdout()
	driver.WithJournal(journal).WithObserver(func(r batch.Result) {
		cli.ResultLine(out, r)
	})
	if !skipConfirm {
		driver.WithConfirmer(cli.NewPrompter(cmd.InOrStdin(), out))
	}
}

// report prints the preview or writes the script, then the summary.
func report(out io.Writer, summary batch.Summary, exec *renamer.Executor, shell renamer.Shell, run runFlags) error {
	planned := summary.Planned()
	switch {
	case shell != "":
		if err := writeScript(out, planned, exec, shell, run); err != nil {
			return err
		}
	case len(planned) > 0:
		cli.Preview(out, planned, run.limit)
		if !run.rename {
			fmt.Fprintln(out, cli.Dim("Run again with --rename to apply these names."))
		}
	}
	cli.Summary(out, summary)
	return nil
}

func writeScript(out io.Writer, planned []batch.Result, exec *renamer.Executor, shell renamer.Shell, run runFlags) error {
	ops := make([]media.RenameOperation, 0, len(planned))
	for _, r := range planned {
		ops = append(ops, r.Outcome.Operation)
	}
	script := renamer.Script{
		Shell:     shell,
		Mode:      exec.Mode,
		OutputDir: exec.OutputDir,
		Entries:   renamer.EntriesFor(exec, ops),
	}
	// a dry run writes a readable plan instead of an executable script
	write, defaultName, label := script.Write, shell.DefaultFilename(), "Script written"
	if run.dryRun {
		write, defaultName, label = script.WritePreview, "rename_preview.txt", "Preview written"
	}

	target := firstNonEmpty(run.scriptOutput, defaultName)
	if target == "-" {
		return write(out)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create script: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write script: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	if shell == renamer.ShellBash && !run.dryRun {
		_ = os.Chmod(target, 0o755)
	}
	fmt.Fprintln(out, cli.Label(label, cli.Path(target)))
	fmt.Fprintln(out, cli.Label("Operations", fmt.Sprint(len(script.Entries))))
	return nil
}
