package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryTopK    int
	queryContext bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query ingested documents",
	Long: `Embeds the query and returns the best-matching chunks. With
--context the matches are assembled into a single text blob suitable
for prompting a language model.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (0 uses the configured default)")
	queryCmd.Flags().BoolVarP(&queryContext, "context", "c", false, "print an assembled context blob instead of ranked matches")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	ctx := context.Background()
	query := args[0]

	if queryContext {
		blob, err := searchService.BuildContext(ctx, flagOwner, query, queryTopK)
		if err != nil {
			return fmt.Errorf("building context: %w", err)
		}
		if blob == "" {
			cmd.Println("No context found.")
			return nil
		}
		cmd.Println(blob)
		return nil
	}

	matches, err := searchService.Search(ctx, flagOwner, query, queryTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(matches) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, m := range matches {
		cmd.Printf("  [%d] (%.2f) doc %s\n", i+1, m.Score, m.DocID)
		cmd.Printf("      %s\n", m.Content)
		cmd.Println()
	}
	return nil
}
