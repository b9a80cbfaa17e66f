package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/access"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show server statistics (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := newAPIClient()
			if err != nil {
				return err
			}

			sess := newSession(apiClient)
			if err := requireAccess(cmd.Context(), sess, access.AdminOnly()); err != nil {
				return err
			}

			stats, err := apiClient.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch stats: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}
