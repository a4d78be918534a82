package main

import (
	"github.com/spf13/cobra"

	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/config"
	"github.com/getnexar/skynet/internal/tui"
)

func browseCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse cataloged sessions in an interactive panel",
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

			return tui.Run(store, status)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (active/completed/error)")

	return cmd
}
