package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/config"
	"github.com/getnexar/skynet/internal/ingest"
	"github.com/getnexar/skynet/internal/watch"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Ingest existing transcripts, then follow changes until interrupted",
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

			logger := log.New(os.Stderr, "", log.LstdFlags)
			coord := ingest.New(store, logger)

			fmt.Fprintf(os.Stderr, "Seeding from %s...\n", cfg.ProjectsRoot)
			stats, err := coord.SeedExisting(cfg.ProjectsRoot)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Seeded. %s\n", stats)

			notifier := watch.New(cfg.ProjectsRoot, coord.HandleFileChange, logger)
			if err := notifier.Start(); err != nil {
				return fmt.Errorf("start notifier: %w", err)
			}
			defer notifier.Stop()
			logger.Printf("watching %s", cfg.ProjectsRoot)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			logger.Printf("shutting down")
			return nil
		},
	}
}
