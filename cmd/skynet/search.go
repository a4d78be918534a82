package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/config"
)

const colorBoldRed = "\033[1;31m"

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", colorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", colorReset)
	return snippet
}

func searchCmd() *cobra.Command {
	var role, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across cataloged messages",
		Long: `Search cataloged messages using FTS5. Output is TSV:
  sessionId, messageId, updatedAt, project, snippet`,
		Args: cobra.ExactArgs(1),
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

			results, err := store.SearchMessages(catalog.SearchOptions{
				Query: args[0],
				Role:  role,
				Since: since,
				Limit: limit,
			})
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				snippet := strings.ReplaceAll(r.Snippet, "\t", " ")
				snippet = strings.ReplaceAll(snippet, "\n", " ")
				fmt.Printf("%s\t%d\t%s%s%s\t%s\t%s\n",
					r.SessionID,
					r.MessageID,
					colorDim, r.UpdatedAt, colorReset,
					r.ProjectPath,
					colorizeSnippet(snippet),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Filter by role (user/assistant)")
	cmd.Flags().StringVar(&since, "since", "", "Filter sessions updated since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
