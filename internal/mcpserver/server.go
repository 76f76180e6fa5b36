// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes dtoapi derivations over a declaration file as MCP tools
// over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grafana/regexp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `dtoapi MCP server: derives JSON schemas, response tables and validation results from a dtoapi declaration file.

Every tool takes a "declarations" object with one of file, url or content. When the server was started with a declaration file, it may be omitted.

Configuration: defaults are configurable via DTOAPI_MCP_* environment variables set in your MCP client config.
- DTOAPI_MCP_CACHE_ENABLED (default: true): cache parsed declaration files per session
- DTOAPI_MCP_CACHE_MAX_SIZE (default: 10): number of cached declaration files
- DTOAPI_MCP_LIST_LIMIT (default: 100): default result limit for list_schemas
- DTOAPI_MCP_MAX_INLINE_SIZE (default: 1MiB): size limit for inline and fetched documents
- DTOAPI_MCP_ALLOW_PRIVATE_IPS (default: false): allow url inputs on private networks
- DTOAPI_MCP_NAMING (default: type-only): component naming (type-only, package, pascal, full-path)`

// Options configures Run.
type Options struct {
	// Version is reported to clients.
	Version string
	// Declarations is the default declaration file.
	Declarations string
}

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	defaultDeclarations = opts.Declarations
	server := mcp.NewServer(
		&mcp.Implementation{Name: "dtoapi", Version: opts.Version},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_schemas",
		Description: "List the payload types of a declaration file with their component schema names, property counts and required properties. Filter by type ref or schema name with a glob (* and ?). Use offset/limit to paginate.",
	}, handleListSchemas)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_schema",
		Description: "Derive the JSON schema document of one payload type. Returns the component name, the schema object and the component names of the types it references through array items.",
	}, handleGetSchema)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_responses",
		Description: "Resolve the response table of an operation: one entry per status code merged from method-level responses, the response declarations of its payload types and the global defaults. Each entry names the tier it came from.",
	}, handleResolveResponses)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_payload",
		Description: "Validate a JSON payload against the constraints derived for a payload type. Returns the 422 validation error body listing every violation with its property path and code.",
	}, handleValidatePayload)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.ListLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.ListLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

// validateGlobPattern checks whether a glob pattern is syntactically valid.
func validateGlobPattern(pattern string) error {
	if pattern == "" || !strings.ContainsAny(pattern, "*?[") {
		return nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return nil
}

// matchGlob reports whether name matches pattern. Patterns without glob
// characters match exactly; an empty pattern matches everything.
func matchGlob(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == name
	}
	ok, _ := filepath.Match(pattern, name)
	return ok
}
