package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRefreshCmd creates the refresh command
func NewRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the access token using the stored refresh token",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := newAPIClient()
			if err != nil {
				return err
			}

			sess := newSession(apiClient)
			if err := sess.Refresh(cmd.Context()); err != nil {
				// The session manager already surfaced the failure through the notifier
				return fmt.Errorf("refresh failed")
			}
			return nil
		},
	}
}
