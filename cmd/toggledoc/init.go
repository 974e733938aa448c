package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/toggledoc/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new toggledoc configuration file",
		Long: `Initialize creates a .toggledoc.yaml configuration file in the current
directory holding the default settings.

Examples:
  # Create .toggledoc.yaml in current directory
  toggledoc init

  # Create config file at a specific path
  toggledoc init -o configs/toggledoc.yaml

  # Force overwrite existing file
  toggledoc init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	// The database location is machine specific.
	cfg.DBDir = ""

	if err := cfg.WriteFile(outputPath, force); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	return nil
}
