package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "pixido",
	Short: "Pixido - Content-based image retrieval",
	Long: `Pixido CLI - Upload images and search by visual similarity.

Pixido indexes images by their color distribution and ranks results by
how closely they match a query image.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pixido version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewRefreshCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewUploadCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewDeleteCmd())
	rootCmd.AddCommand(commands.NewSearchCmd())
	rootCmd.AddCommand(commands.NewSeedCmd())
	rootCmd.AddCommand(commands.NewStatsCmd())
	rootCmd.AddCommand(commands.NewPromoteCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
