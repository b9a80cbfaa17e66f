package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/credstore"
	"github.com/pixido-dev/pixido/internal/cli/session"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logout is a local reset and works without a configured server
			sess := session.New(nil, credstore.Default, newNotifier(os.Stdout), cliLogger())
			sess.Logout()
			return nil
		},
	}
}
