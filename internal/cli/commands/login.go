package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the Pixido server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set PIXIDO_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set PIXIDO_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, username, password string) error {
	// Check for environment variables (useful for CI/CD)
	if username == "" {
		username = os.Getenv("PIXIDO_USERNAME")
	}
	if password == "" {
		password = os.Getenv("PIXIDO_PASSWORD")
	}

	if username == "" {
		return fmt.Errorf("username is required (use --username flag or PIXIDO_USERNAME env var)")
	}

	if password == "" {
		var err error
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
	}

	apiClient, err := newAPIClient()
	if err != nil {
		return err
	}

	sess := newSession(apiClient)
	if err := sess.Login(cmd.Context(), username, password); err != nil {
		// The session manager already surfaced the failure through the notifier
		return fmt.Errorf("login failed")
	}

	snap := sess.Snapshot()
	if snap.User != nil {
		fmt.Printf("  User: %s (%s)\n", snap.User.Username, snap.User.Email)
		if snap.IsAdmin() {
			fmt.Println("  Role: Admin")
		}
	}

	return nil
}

// promptPassword reads a password without echo when stdin is a terminal
func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or PIXIDO_PASSWORD env var)")
	}

	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	return string(bytePassword), nil
}
