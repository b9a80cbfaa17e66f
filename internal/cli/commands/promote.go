package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/access"
)

// NewPromoteCmd creates the promote command
func NewPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <user-id>",
		Short: "Promote a user to admin (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := newAPIClient()
			if err != nil {
				return err
			}

			sess := newSession(apiClient)
			if err := requireAccess(cmd.Context(), sess, access.AdminOnly()); err != nil {
				return err
			}

			if err := apiClient.PromoteUser(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to promote user: %w", err)
			}

			fmt.Printf("✓ User %s promoted to admin\n", args[0])
			return nil
		},
	}
}
