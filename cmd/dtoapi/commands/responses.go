package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/response"
)

// responseRow is the rendered form of one resolved entry.
type responseRow struct {
	Status      int    `json:"status" yaml:"status"`
	Description string `json:"description" yaml:"description"`
	Payload     string `json:"payload,omitempty" yaml:"payload,omitempty"`
	Schema      string `json:"schema,omitempty" yaml:"schema,omitempty"`
	ContentType string `json:"contentType" yaml:"contentType"`
	Stream      bool   `json:"stream,omitempty" yaml:"stream,omitempty"`
	Source      string `json:"source" yaml:"source"`
}

func newResponsesCommand(root *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "responses <declarations> <operation>",
		Short: "Print the resolved response table of an operation",
		Long: `Merges the method-level, type-level and default response declarations of
an operation into one table with a single entry per status.`,
		Example: `  dtoapi responses declarations.yaml users.get
  dtoapi responses declarations.yaml users.get --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ValidateOutputFormat(format, FormatText, FormatJSON, FormatYAML); err != nil {
				return err
			}
			e, err := newEngine(cmd, root, args[0])
			if err != nil {
				return err
			}
			table, err := e.resolver.ResolveOperation(meta.OperationRef(args[1]))
			if err != nil {
				return err
			}
			if len(table) == 0 {
				table = response.Table{response.Implicit}
			}
			rows := make([]responseRow, 0, len(table))
			for _, entry := range table {
				row := responseRow{
					Status:      entry.Status,
					Description: entry.DescriptionOrDefault(),
					Payload:     string(entry.Payload),
					ContentType: entry.ContentType,
					Stream:      entry.Stream,
					Source:      entry.Source.String(),
				}
				if entry.HasBody() {
					row.Schema = e.registry.SchemaName(entry.Payload)
				}
				rows = append(rows, row)
			}
			if format == FormatText {
				return writeResponseTable(cmd.OutOrStdout(), rows)
			}
			return OutputStructured(cmd.OutOrStdout(), rows, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "output format: text, json, or yaml")
	return cmd
}

func writeResponseTable(w io.Writer, rows []responseRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STATUS\tSOURCE\tCONTENT TYPE\tPAYLOAD\tDESCRIPTION")
	for _, r := range rows {
		payload := r.Payload
		if payload == "" {
			payload = "-"
		} else if r.Stream {
			payload += " (stream)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			strconv.Itoa(r.Status), r.Source, r.ContentType, payload, r.Description)
	}
	return tw.Flush()
}
