package commands

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/userconfig"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the Pixido server to use",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(serverURL)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Server URL, e.g. http://localhost:8000")
	cmd.MarkFlagRequired("server")

	return cmd
}

func runInit(serverURL string) error {
	serverURL = strings.TrimRight(serverURL, "/")

	parsed, err := url.Parse(serverURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid server URL %q (expected something like http://localhost:8000)", serverURL)
	}

	if err := userconfig.SetServerURL(serverURL); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, _ := userconfig.GetConfigPath()
	fmt.Printf("✓ Server set to %s\n", serverURL)
	if configPath != "" {
		fmt.Printf("  Config: %s\n", configPath)
	}
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'pixido register' to create an account, or")
	fmt.Println("  2. Run 'pixido login' if you already have one")

	return nil
}
