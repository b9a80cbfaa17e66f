package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pixido-dev/pixido/internal/cli/access"
	"github.com/pixido-dev/pixido/internal/cli/api"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List uploaded images",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := newAPIClient()
			if err != nil {
				return err
			}

			sess := newSession(apiClient)
			if err := requireAccess(cmd.Context(), sess, access.AuthenticatedOnly()); err != nil {
				return err
			}

			images, err := apiClient.ListImages(cmd.Context())
			if err != nil {
				return err
			}

			renderImageTable(os.Stdout, images)
			return nil
		},
	}
}

func renderImageTable(out io.Writer, images []api.Image) {
	if len(images) == 0 {
		fmt.Fprintln(out, "No images found.")
		fmt.Fprintln(out, "\nUpload one with: pixido upload <image-file>")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILENAME\tLABEL\tINDEXED\tUPLOADED AT")
	fmt.Fprintln(w, "──\t────────\t─────\t───────\t───────────")

	for _, image := range images {
		indexed := "no"
		if image.Indexed {
			indexed = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			image.ID,
			image.Filename,
			image.Label,
			indexed,
			image.UploadedAt,
		)
	}

	w.Flush()
}
