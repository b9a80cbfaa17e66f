package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/access"
)

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "upload <image-file>",
		Short: "Upload an image for indexing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args[0], label)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Optional label for the image")

	return cmd
}

func runUpload(cmd *cobra.Command, path, label string) error {
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

	image, err := apiClient.UploadImage(cmd.Context(), filepath.Base(path), file, label)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Printf("✓ Uploaded %s (id %s)\n", image.Filename, image.ID)
	fmt.Println("  Indexing has been queued; the image becomes searchable shortly.")

	return nil
}
