package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/config"
)

const (
	colorReset = "\033[0m"
	colorBlue  = "\033[1;34m"
	colorDim   = "\033[2m"
)

func sessionsCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List cataloged sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := catalog.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.ListSessions(status)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			for _, s := range sessions {
				statusCol := s.Status
				if s.Status == catalog.StatusActive {
					statusCol = colorBlue + s.Status + colorReset
				}
				fmt.Printf("%s\t%s\t%s\t%s%s%s\n",
					s.SessionID,
					statusCol,
					s.ProjectPath,
					colorDim, s.UpdatedAt, colorReset,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (active/completed/error)")

	return cmd
}
