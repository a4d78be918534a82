package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/config"
	"github.com/getnexar/skynet/internal/ingest"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Run one full reconciliation pass over all transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := catalog.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			logger := log.New(os.Stderr, "", 0)
			coord := ingest.New(store, logger)

			fmt.Fprintf(os.Stderr, "Scanning %s...\n", cfg.ProjectsRoot)
			stats, err := coord.SeedExisting(cfg.ProjectsRoot)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}
}
