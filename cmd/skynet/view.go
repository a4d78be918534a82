package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/config"
	"github.com/getnexar/skynet/internal/render"
)

func viewCmd() *cobra.Command {
	var limit, width int

	cmd := &cobra.Command{
		Use:   "view <session-id>",
		Short: "Print a session's messages",
		Args:  cobra.ExactArgs(1),
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

			if width == 0 {
				if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
					width = w
				}
			}

			out, err := render.RenderSession(store, args[0], render.Options{
				Width: width,
				Limit: limit,
			})
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Max messages to show (0 = default)")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = terminal width)")

	return cmd
}
