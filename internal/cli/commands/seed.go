package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pixido-dev/pixido/internal/cli/access"
)

// SeedManifest describes a dataset to upload in bulk
type SeedManifest struct {
	Images []SeedImage `yaml:"images"`
}

// SeedImage is a single manifest entry. Paths are resolved relative to the
// manifest file.
type SeedImage struct {
	Path  string `yaml:"path"`
	Label string `yaml:"label"`
}

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <manifest.yaml>",
		Short: "Upload a labeled dataset from a manifest file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args[0])
		},
	}
}

func runSeed(cmd *cobra.Command, manifestPath string) error {
	manifest, err := loadSeedManifest(manifestPath)
	if err != nil {
		return err
	}
	if len(manifest.Images) == 0 {
		return fmt.Errorf("manifest %s lists no images", manifestPath)
	}

	apiClient, err := newAPIClient()
	if err != nil {
		return err
	}

	sess := newSession(apiClient)
	if err := requireAccess(cmd.Context(), sess, access.AuthenticatedOnly()); err != nil {
		return err
	}

	baseDir := filepath.Dir(manifestPath)
	uploaded, failed := 0, 0

	for _, entry := range manifest.Images {
		path := entry.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		file, err := os.Open(path)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", entry.Path, err)
			failed++
			continue
		}

		image, err := apiClient.UploadImage(cmd.Context(), filepath.Base(path), file, entry.Label)
		file.Close()
		if err != nil {
			fmt.Printf("✗ %s: %v\n", entry.Path, err)
			failed++
			continue
		}

		fmt.Printf("✓ %s (label %q, id %s)\n", entry.Path, entry.Label, image.ID)
		uploaded++
	}

	fmt.Printf("\nSeeded %d image(s), %d failed\n", uploaded, failed)
	if failed > 0 {
		return fmt.Errorf("%d upload(s) failed", failed)
	}
	return nil
}

func loadSeedManifest(path string) (*SeedManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest SeedManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}
