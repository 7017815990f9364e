package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/trentmillar/plex-file-namer/internal/batch"
	"github.com/trentmillar/plex-file-namer/internal/catalog"
	"github.com/trentmillar/plex-file-namer/internal/catalog/tmdb"
	"github.com/trentmillar/plex-file-namer/internal/config"
	"github.com/trentmillar/plex-file-namer/internal/database"
	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/pattern"
	"github.com/trentmillar/plex-file-namer/internal/pipeline"
	"github.com/trentmillar/plex-file-namer/internal/probe"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

// namingFlags are shared by every command that identifies files. Empty
// strings and false fall back to the config file.
type namingFlags struct {
	kind            string
	pattern         string
	rootFolder      string
	showName        string
	parenthesesOnly bool
	skipFormatted   bool
	noProbe         bool
	noCache         bool
}

func (f *namingFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.kind, "type", "", "Force the media type: auto, movie or tv")
	flags.StringVar(&f.pattern, "pattern", "", "Placeholder pattern tried before the heuristics")
	flags.StringVar(&f.rootFolder, "root-folder", "", "Folder the pattern is anchored at")
	flags.StringVar(&f.showName, "show-name", "", "Show name to search for (implies --type tv)")
	flags.BoolVar(&f.parenthesesOnly, "parentheses-only", false, "Only accept years written in parentheses")
	flags.BoolVar(&f.skipFormatted, "skip-formatted", false, "Skip files that are already named in Plex format")
	flags.BoolVar(&f.noProbe, "no-probe", false, "Do not run ffprobe; quality comes from the filename only")
	flags.BoolVar(&f.noCache, "no-cache", false, "Bypass the catalog response cache")
}

// outputFlags choose how identified files are written.
type outputFlags struct {
	mode     string
	output   string
	noBackup bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.mode, "mode", "", "Operation mode: move or copy")
	flags.StringVarP(&f.output, "output", "o", "", "Directory that receives renamed files (default: their own folder)")
	flags.BoolVar(&f.noBackup, "no-backup", false, "Do not write .original.txt backup notes")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// pipelineOptions merges the naming flags over the config.
func pipelineOptions(cfg *config.Config, nf namingFlags) (pipeline.Options, error) {
	kind, ok := media.ParseType(firstNonEmpty(nf.kind, cfg.Naming.DefaultType))
	if !ok {
		return pipeline.Options{}, fmt.Errorf("invalid --type %q (want auto, movie or tv)", nf.kind)
	}
	opts := pipeline.Options{
		Force:           kind,
		ParenthesesOnly: nf.parenthesesOnly || cfg.Naming.ParenthesesOnly,
		RootFolder:      firstNonEmpty(nf.rootFolder, cfg.Naming.RootFolder),
		ShowName:        firstNonEmpty(nf.showName, cfg.Naming.ShowName),
	}
	if src := firstNonEmpty(nf.pattern, cfg.Naming.Pattern); src != "" {
		p, err := pattern.Compile(src)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("compile pattern: %w", err)
		}
		opts.Pattern = p
	}
	return opts, nil
}

// executor merges the output flags over the config.
func executor(cfg *config.Config, of outputFlags) (*renamer.Executor, error) {
	mode, err := renamer.ParseMode(firstNonEmpty(of.mode, cfg.Rename.Mode))
	if err != nil {
		return nil, err
	}
	outputDir := cfg.Rename.OutputDir
	if strings.TrimSpace(of.output) != "" {
		if outputDir, err = config.ExpandPath(strings.TrimSpace(of.output)); err != nil {
			return nil, fmt.Errorf("resolve output directory: %w", err)
		}
	}
	return &renamer.Executor{
		Mode:          mode,
		OutputDir:     outputDir,
		CreateBackups: cfg.Rename.CreateBackups && !of.noBackup,
	}, nil
}

// newEngine wires the TMDB catalog (cached in store when enabled) and the
// prober into an identification engine.
func (c *commandContext) newEngine(cmd *cobra.Command, nf namingFlags, store *database.Store) (*pipeline.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireTMDB(); err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := pipelineOptions(cfg, nf)
	if err != nil {
		return nil, err
	}

	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return nil, fmt.Errorf("create tmdb client: %w", err)
	}
	var cat catalog.Catalog = catalog.NewTMDB(client, cfg.TMDB.DetailLimit, logger)
	if store != nil && cfg.Cache.Enabled && !nf.noCache {
		cat = catalog.NewCached(cat, store, time.Duration(cfg.Cache.TTLHours)*time.Hour, logger)
	}

	var prober pipeline.Prober
	if cfg.Probe.Enabled && !nf.noProbe {
		prober = probe.New(cfg.Probe.FFprobeBinary, time.Duration(cfg.Probe.TimeoutSeconds)*time.Second)
	}
	return pipeline.New(cat, prober, opts, logger), nil
}

// newDriver builds the batch driver shared by rename, import-plex and watch.
func (c *commandContext) newDriver(cmd *cobra.Command, engine *pipeline.Engine, nf namingFlags, exec *renamer.Executor, execute bool) (*batch.Driver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger(cmd)
	if err != nil {
		return nil, err
	}
	return batch.New(engine, batch.Options{
		Extensions:    cfg.Scan.Extensions,
		Execute:       execute,
		SkipFormatted: nf.skipFormatted || cfg.Rename.SkipFormatted,
		Executor:      exec,
	}, logger), nil
}
