package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getnexar/skynet/internal/api"
	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/config"
	"github.com/getnexar/skynet/internal/ingest"
	"github.com/getnexar/skynet/internal/watch"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor: watch transcripts and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}

			store, err := catalog.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			logger := log.New(os.Stderr, "", log.LstdFlags)
			coord := ingest.New(store, logger)
			srv := api.NewServer(store, coord, cfg.HTTPAddr, logger)

			stats, err := coord.SeedExisting(cfg.ProjectsRoot)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			logger.Printf("seeded: %s", stats)

			notifier := watch.New(cfg.ProjectsRoot, coord.HandleFileChange, logger)
			if err := notifier.Start(); err != nil {
				return fmt.Errorf("start notifier: %w", err)
			}
			defer notifier.Stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Printf("listening on http://%s", cfg.HTTPAddr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-sig:
			}

			logger.Printf("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")

	return cmd
}
