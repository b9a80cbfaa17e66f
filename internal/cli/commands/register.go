package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account on the Pixido server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, username, email, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username for the new account")
	cmd.Flags().StringVar(&email, "email", "", "Email address for the new account")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set PIXIDO_PASSWORD, will prompt if not provided)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runRegister(cmd *cobra.Command, username, email, password string) error {
	if password == "" {
		password = os.Getenv("PIXIDO_PASSWORD")
	}

	var password2 string
	if password == "" {
		var err error
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
		password2, err = promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
	} else {
		password2 = password
	}

	apiClient, err := newAPIClient()
	if err != nil {
		return err
	}

	sess := newSession(apiClient)
	if err := sess.Register(cmd.Context(), username, email, password, password2); err != nil {
		return fmt.Errorf("registration failed")
	}

	if user := sess.Snapshot().User; user != nil {
		fmt.Printf("  User: %s (%s)\n", user.Username, user.Email)
	}

	return nil
}
