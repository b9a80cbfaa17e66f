package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/access"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := newAPIClient()
			if err != nil {
				return err
			}

			sess := newSession(apiClient)
			if err := requireAccess(cmd.Context(), sess, access.AuthenticatedOnly()); err != nil {
				return err
			}

			user := sess.Snapshot().User
			fmt.Printf("Username: %s\n", user.Username)
			fmt.Printf("Email:    %s\n", user.Email)
			fmt.Printf("Role:     %s\n", user.Role)
			if user.IsSuperuser {
				fmt.Println("Superuser: yes")
			}

			return nil
		},
	}
}
