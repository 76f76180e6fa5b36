package commands

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erraggy/dtoapi/config"
	"github.com/erraggy/dtoapi/dtoerrors"
	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/openapi"
)

// parseRoute parses a --route value of the form "METHOD /path=operation".
func parseRoute(s string) (config.Route, error) {
	binding, op, ok := strings.Cut(s, "=")
	method, path, ok2 := strings.Cut(strings.TrimSpace(binding), " ")
	op = strings.TrimSpace(op)
	path = strings.TrimSpace(path)
	if !ok || !ok2 || op == "" || path == "" {
		return config.Route{}, &dtoerrors.ConfigError{
			Option:  "route",
			Value:   s,
			Message: `expected "METHOD /path=operation"`,
		}
	}
	return config.Route{Method: method, Path: path, Operation: op}, nil
}

// buildDocument assembles the OpenAPI document from the configured routes
// followed by extra.
func buildDocument(e *engine, extra []string) (*openapi.Document, error) {
	routes := slices.Clone(e.cfg.OpenAPI.Routes)
	for _, s := range extra {
		r, err := parseRoute(s)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	if len(routes) == 0 {
		return nil, &dtoerrors.ConfigError{
			Option:  "openapi.routes",
			Message: "no routes configured; set openapi.routes or pass --route",
		}
	}

	oc := e.cfg.OpenAPI
	opts := []openapi.Option{openapi.WithLogger(e.logger)}
	if oc.Description != "" {
		opts = append(opts, openapi.WithDescription(oc.Description))
	}
	for name, desc := range oc.Tags {
		opts = append(opts, openapi.WithTagDescription(name, desc))
	}
	b := openapi.New(e.decls, e.registry, e.resolver, oc.Title, oc.Version, opts...)
	for _, r := range routes {
		b.AddRoute(r.Method, r.Path, meta.OperationRef(r.Operation))
	}
	return b.Build()
}

func newOpenAPICommand(root *rootFlags) *cobra.Command {
	var (
		format string
		output string
		routes []string
	)
	cmd := &cobra.Command{
		Use:   "openapi <declarations>",
		Short: "Assemble an OpenAPI 3.1 document",
		Long: `Assembles an OpenAPI 3.1 document from the routes configured under
openapi.routes and those given with --route.`,
		Example: `  dtoapi openapi declarations.yaml --route "GET /users/{id}=users.get"
  dtoapi openapi declarations.yaml --format yaml -o openapi.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ValidateOutputFormat(format, FormatJSON, FormatYAML); err != nil {
				return err
			}
			e, err := newEngine(cmd, root, args[0])
			if err != nil {
				return err
			}
			doc, err := buildDocument(e, routes)
			if err != nil {
				return err
			}
			var data []byte
			if format == FormatYAML {
				data, err = doc.YAML()
			} else {
				data, err = doc.JSON()
			}
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				e.logger.Info("wrote OpenAPI document", "path", output, "paths", len(doc.Paths))
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(data), "\n"))
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", FormatJSON, "output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document to a file instead of stdout")
	cmd.Flags().StringArrayVarP(&routes, "route", "r", nil, `bind an operation, as "METHOD /path=operation" (repeatable)`)
	return cmd
}
