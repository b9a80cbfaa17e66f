package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/access"
)

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <image-id-or-filename>",
		Short: "Delete an uploaded image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0])
		},
	}
}

func runDelete(cmd *cobra.Command, ref string) error {
	apiClient, err := newAPIClient()
	if err != nil {
		return err
	}

	sess := newSession(apiClient)
	if err := requireAccess(cmd.Context(), sess, access.AuthenticatedOnly()); err != nil {
		return err
	}

	// Accept a filename as well as an ID for convenience
	images, err := apiClient.ListImages(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	imageID := ""
	for _, image := range images {
		if image.ID == ref || image.Filename == ref {
			imageID = image.ID
			break
		}
	}

	if imageID == "" {
		return fmt.Errorf("image '%s' not found", ref)
	}

	if err := apiClient.DeleteImage(cmd.Context(), imageID); err != nil {
		return err
	}

	fmt.Printf("✓ Deleted image %s\n", ref)
	return nil
}
