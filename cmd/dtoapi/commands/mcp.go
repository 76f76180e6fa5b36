package commands

import (
	"github.com/spf13/cobra"

	"github.com/erraggy/dtoapi"
	"github.com/erraggy/dtoapi/internal/mcpserver"
)

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp [declarations]",
		Short: "Serve the engines as MCP tools over stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout. Tools accept a
declaration file, URL or inline document; the optional argument names the
file used when a call provides none.

The server is configured through DTOAPI_MCP_* environment variables.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := mcpserver.Options{Version: dtoapi.Version()}
			if len(args) == 1 {
				opts.Declarations = args[0]
			}
			return mcpserver.Run(cmd.Context(), opts)
		},
	}
}
