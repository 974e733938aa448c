package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for toggledoc.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggledoc",
		Short: "Document feature toggles from code annotations",
		Long: `toggledoc scans a source tree for structured comment annotations such as

  # .. toggle_name: ENABLE_NEW_DASHBOARD
  # .. toggle_default: False
  # .. toggle_description: Shows the new dashboard to learners.

assembles them into one record per toggle and renders the records as text,
JSON, Markdown or HTML. Settings and custom grammars are supported too.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .toggledoc.yaml in current, XDG config or home directory)")

	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewTemplateCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
