package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/config"
)

// NewTemplateCmd creates the template command.
func NewTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template [kind]",
		Short: "Print an annotation template to paste into source code",
		Long: `Template prints every tag of an annotation grammar with a placeholder
value, ready to be pasted above a new toggle or setting.

The kind is a built-in grammar name or the path of a grammar YAML file.

Examples:
  # Feature toggle template for Python or YAML
  toggledoc template featuretoggle

  # Setting template for JavaScript
  toggledoc template setting -p //

  # List built-in kinds
  toggledoc template --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTemplateCmd,
	}

	cmd.Flags().StringP("prefix", "p", "#",
		"Comment prefix written before each line")
	cmd.Flags().BoolP("list", "l", false,
		"List the built-in annotation kinds")

	return cmd
}

// runTemplateCmd executes the template command.
func runTemplateCmd(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		for _, kind := range annotation.BuiltinKinds() {
			fmt.Fprintln(cmd.OutOrStdout(), kind)
		}
		return nil
	}

	prefix, err := cmd.Flags().GetString("prefix")
	if err != nil {
		return err
	}

	kind := config.DefaultKind
	if len(args) > 0 {
		kind = args[0]
	}

	grammar, err := annotation.Resolve(kind)
	if err != nil {
		return err
	}

	lines := grammar.Template(prefix)
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
	return nil
}
