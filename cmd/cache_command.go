package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the catalog response cache",
	}
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))
	return cacheCmd
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	var (
		all    bool
		maxAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove expired catalog responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			age := maxAge
			if age <= 0 {
				age = time.Duration(cfg.Cache.TTLHours) * time.Hour
			}
			if all {
				// a cutoff in the future removes everything
				age = -time.Minute
			} else if age == 0 {
				fmt.Fprintln(out, "Cache entries never expire (cache.ttl_hours = 0); use --all or --older-than")
				return nil
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.PurgeCache(cmd.Context(), age)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d cached responses from %s\n", removed, store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every cached response")
	cmd.Flags().DurationVar(&maxAge, "older-than", 0, "Remove responses older than this (default: the cache TTL)")
	return cmd
}
