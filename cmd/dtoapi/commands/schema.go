package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erraggy/dtoapi/meta"
)

func newSchemaCommand(root *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "schema <declarations> [type]",
		Short: "Print JSON schema documents",
		Long: `Prints the schema document of a payload type together with the documents
of the types it references. Without a type, prints the documents of every
declared type.`,
		Example: `  dtoapi schema declarations.yaml acme.User
  dtoapi schema declarations.yaml --format yaml`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ValidateOutputFormat(format, FormatJSON, FormatYAML); err != nil {
				return err
			}
			e, err := newEngine(cmd, root, args[0])
			if err != nil {
				return err
			}
			refs := e.decls.Types()
			if len(args) == 2 {
				refs = []meta.TypeRef{meta.TypeRef(args[1])}
			}
			for _, ref := range refs {
				if err := e.registry.Ensure(ref); err != nil {
					return fmt.Errorf("deriving %s: %w", ref, err)
				}
			}
			return OutputStructured(cmd.OutOrStdout(), e.registry.Export(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", FormatJSON, "output format: json or yaml")
	return cmd
}
