package commands

import (
	"github.com/spf13/cobra"

	"github.com/erraggy/dtoapi"
)

// rootFlags are the flags shared by every command.
type rootFlags struct {
	configPath string
}

// NewRootCommand creates the dtoapi command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "dtoapi",
		Short: "Derive API contracts from payload metadata",
		Long: `dtoapi reads a declaration file describing payload types and operations
and derives JSON schemas, response tables, validation results and OpenAPI
documents from it.

Configuration is read from ./dtoapi.yaml, or from the file named by
--config. Environment variables prefixed with DTOAPI_ override it.`,
		Version:       dtoapi.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "configuration file (default ./dtoapi.yaml)")

	cmd.AddCommand(
		newSchemaCommand(flags),
		newResponsesCommand(flags),
		newOpenAPICommand(flags),
		newValidateCommand(flags),
		newNormalizeCommand(flags),
		newServeCommand(flags),
		newMCPCommand(),
		newVersionCommand(),
	)
	return cmd
}
