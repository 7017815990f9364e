package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trentmillar/plex-file-namer/internal/batch"
	"github.com/trentmillar/plex-file-namer/internal/cli"
	"github.com/trentmillar/plex-file-namer/internal/config"
	"github.com/trentmillar/plex-file-namer/internal/database"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

type pathMapping struct {
	src string
	dst string
}

func parsePathMapping(value string) (pathMapping, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return pathMapping{}, nil
	}
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return pathMapping{}, fmt.Errorf("invalid --path-map %q (use old:new)", value)
	}
	return pathMapping{src: parts[0], dst: parts[1]}, nil
}

func (m pathMapping) apply(path string) string {
	if m.src == "" {
		return path
	}
	return renamer.ApplyPathMapping(path, m.src, m.dst)
}

func newImportPlexCommand(ctx *commandContext) *cobra.Command {
	var (
		naming   namingFlags
		output   outputFlags
		run      runFlags
		sections []string
		pathMap  string
	)

	cmd := &cobra.Command{
		Use:   "import-plex DB",
		Short: "Rename the files listed in a Plex library database",
		Long: `Read the file list of one or more libraries from a Plex Media Server
database (opened read-only) and run those files through identification.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			mapping, err := parsePathMapping(pathMap)
			if err != nil {
				return err
			}
			shell, err := scriptShell(run.script)
			if err != nil {
				return err
			}
			exec, err := executor(cfg, output)
			if err != nil {
				return err
			}
			dbPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve database path: %w", err)
			}

			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			prompter := cli.NewPrompter(cmd.InOrStdin(), out)
			paths, err := plexPaths(cmd.Context(), dbPath, sections, prompter, mapping, logger)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintln(out, "No files to process.")
				return nil
			}
			fmt.Fprintln(out, cli.Label("Files in selected libraries", fmt.Sprint(len(paths))))

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			engine, err := ctx.newEngine(cmd, naming, store)
			if err != nil {
				return err
			}

			// plan everything first, then ask once before touching files
			planner, err := ctx.newDriver(cmd, engine, naming, exec, false)
			if err != nil {
				return err
			}
			plan, err := planner.RunFiles(cmd.Context(), paths)
			if err != nil {
				return err
			}
			if !run.execute() {
				return report(out, plan, exec, shell, run)
			}

			planned := plan.Planned()
			if len(planned) == 0 {
				cli.Summary(out, plan)
				return nil
			}
			cli.Preview(out, planned, run.limit)
			if !run.yes && !cfg.Rename.SkipConfirmation {
				ok, err := prompter.ConfirmProceed(len(planned), string(exec.Mode))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Operation cancelled.")
					return nil
				}
			}

			driver, err := ctx.newDriver(cmd, engine, naming, exec, true)
			if err != nil {
				return err
			}
			driver.WithJournal(store)
			stop := trackProgress(out, driver, len(planned))
			todo := make([]string, 0, len(planned))
			for _, r := range planned {
				todo = append(todo, r.Path)
			}
			summary, err := driver.RunFiles(cmd.Context(), todo)
			stop()
			if err != nil {
				return err
			}
			cli.Summary(out, summary)
			return nil
		},
	}

	naming.register(cmd)
	output.register(cmd)
	run.register(cmd)
	cmd.Flags().StringSliceVar(&sections, "section", nil, "Library name to process (repeatable; default: ask)")
	cmd.Flags().StringVar(&pathMap, "path-map", "", "Rewrite Plex paths as old:new, for libraries on another machine")
	return cmd
}

// plexPaths lists the files of the chosen libraries with the path mapping
// applied. Without --section the user picks libraries interactively.
func plexPaths(ctx context.Context, dbPath string, names []string, prompter *cli.Prompter, mapping pathMapping, logger *slog.Logger) ([]string, error) {
	plex, err := database.OpenPlex(dbPath)
	if err != nil {
		return nil, err
	}
	defer plex.Close()

	sections, err := plex.LibrarySections(ctx)
	if err != nil {
		return nil, err
	}
	var libraries []database.LibrarySection
	for _, s := range sections {
		if s.SectionType == database.SectionTypeMovie || s.SectionType == database.SectionTypeShow {
			libraries = append(libraries, s)
		}
	}

	var selected []database.LibrarySection
	if len(names) > 0 {
		want := make(map[string]bool, len(names))
		for _, n := range names {
			want[strings.ToLower(strings.TrimSpace(n))] = true
		}
		for _, s := range libraries {
			if want[strings.ToLower(s.Name)] {
				selected = append(selected, s)
			}
		}
		if len(selected) == 0 {
			return nil, fmt.Errorf("no movie or TV library named %s", strings.Join(names, ", "))
		}
	} else if len(libraries) > 0 {
		if selected, err = prompter.SelectSections(libraries); err != nil {
			return nil, err
		}
	}

	var paths []string
	for _, s := range selected {
		warnUnreachableRoots(ctx, plex, s, mapping, logger)
		files, err := plex.Files(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", s.Name, err)
		}
		for _, f := range files {
			paths = append(paths, mapping.apply(f.Path))
		}
	}
	return paths, nil
}

// warnUnreachableRoots flags library roots that do not exist on this machine
// after mapping, the usual sign of a missing --path-map.
func warnUnreachableRoots(ctx context.Context, plex *database.PlexDB, s database.LibrarySection, mapping pathMapping, logger *slog.Logger) {
	locations, err := plex.SectionLocations(ctx, s.ID)
	if err != nil {
		logger.Debug("could not read library roots", "library", s.Name, "error", err)
		return
	}
	for _, l := range locations {
		root := mapping.apply(l.RootPath)
		if _, err := os.Stat(root); err != nil {
			logger.Warn("library root not found; use --path-map old:new if Plex runs elsewhere",
				"library", s.Name, "root", root)
		}
	}
}

// trackProgress shows a progress bar while the driver works, on terminals
// only. The returned func stops it.
func trackProgress(out io.Writer, driver *batch.Driver, total int) func() {
	if !cli.IsTerminal(os.Stdout) {
		driver.WithObserver(func(r batch.Result) { cli.ResultLine(out, r) })
		return func() {}
	}
	bar, err := cli.NewProgress(out, total, "Processing files")
	if err != nil {
		return func() {}
	}
	driver.WithObserver(func(batch.Result) { bar.Increment() })
	return func() { _, _ = bar.Stop() }
}
