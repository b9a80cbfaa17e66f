package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/access"
	"github.com/pixido-dev/pixido/internal/cli/api"
)

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search <query-image>",
		Short: "Find images similar to a query image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], topK)
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of results to return (server default if omitted)")

	return cmd
}

func runSearch(cmd *cobra.Command, path string, topK int) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	apiClient, err := newAPIClient()
	if err != nil {
		return err
	}

	sess := newSession(apiClient)
	if err := requireAccess(cmd.Context(), sess, access.AuthenticatedOnly()); err != nil {
		return err
	}

	resp, err := apiClient.Search(cmd.Context(), filepath.Base(path), file, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	renderSearchResults(os.Stdout, resp.Results)
	return nil
}

func renderSearchResults(out io.Writer, results []api.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No similar images found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tFILENAME\tLABEL\tID")
	fmt.Fprintln(w, "─────\t────────\t─────\t──")

	for _, result := range results {
		fmt.Fprintf(w, "%.2f%%\t%s\t%s\t%s\n",
			result.Score,
			result.Filename,
			result.Label,
			result.ImageID,
		)
	}

	w.Flush()
}
