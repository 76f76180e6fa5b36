package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/dtoapi/meta"
)

type resolveResponsesInput struct {
	Declarations declarationInput `json:"declarations,omitempty" jsonschema:"The declaration document to read"`
	Operation    string           `json:"operation"              jsonschema:"Operation ref\\, e.g. users.get"`
}

type responseEntry struct {
	Status      int    `json:"status"`
	Description string `json:"description"`
	Payload     string `json:"payload,omitempty"`
	Schema      string `json:"schema,omitempty"`
	ContentType string `json:"content_type"`
	Stream      bool   `json:"stream,omitempty"`
	Source      string `json:"source"`
}

type resolveResponsesOutput struct {
	Operation string          `json:"operation"`
	Responses []responseEntry `json:"responses"`
}

func handleResolveResponses(ctx context.Context, _ *mcp.CallToolRequest, input resolveResponsesInput) (*mcp.CallToolResult, any, error) {
	if input.Operation == "" {
		return errResult(fmt.Errorf("operation is required")), nil, nil
	}
	ws, err := input.Declarations.resolve(ctx)
	if err != nil {
		return errResult(err), nil, nil
	}
	table, err := ws.resolver.ResolveOperation(meta.OperationRef(input.Operation))
	if err != nil {
		return errResult(err), nil, nil
	}

	out := resolveResponsesOutput{Operation: input.Operation, Responses: make([]responseEntry, 0, len(table))}
	for _, r := range table {
		e := responseEntry{
			Status:      r.Status,
			Description: r.DescriptionOrDefault(),
			Payload:     string(r.Payload),
			ContentType: r.ContentType,
			Stream:      r.Stream,
			Source:      r.Source.String(),
		}
		if r.HasBody() {
			e.Schema = ws.registry.SchemaName(r.Payload)
		}
		out.Responses = append(out.Responses, e)
	}
	return nil, out, nil
}
