package mcpserver

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/dtoapi/meta"
)

type listSchemasInput struct {
	Declarations declarationInput `json:"declarations,omitempty" jsonschema:"The declaration document to read"`
	Name         string           `json:"name,omitempty"         jsonschema:"Filter by type ref or schema name (exact match\\, or glob with * and ?\\, e.g. acme.*)"`
	Limit        int              `json:"limit,omitempty"        jsonschema:"Maximum results (default 100)"`
	Offset       int              `json:"offset,omitempty"       jsonschema:"Skip the first N results (for pagination)"`
}

type schemaSummary struct {
	Ref           string   `json:"ref"`
	Name          string   `json:"name"`
	Enum          bool     `json:"enum,omitempty"`
	PropertyCount int      `json:"property_count"`
	Required      []string `json:"required,omitempty"`
}

type listSchemasOutput struct {
	Total    int             `json:"total"`
	Matched  int             `json:"matched"`
	Returned int             `json:"returned"`
	Schemas  []schemaSummary `json:"schemas,omitempty"`
}

func handleListSchemas(ctx context.Context, _ *mcp.CallToolRequest, input listSchemasInput) (*mcp.CallToolResult, any, error) {
	if err := validateGlobPattern(input.Name); err != nil {
		return errResult(err), nil, nil
	}
	ws, err := input.Declarations.resolve(ctx)
	if err != nil {
		return errResult(err), nil, nil
	}

	refs := ws.decls.Types()
	var matched []schemaSummary
	for _, ref := range refs {
		name := ws.registry.SchemaName(ref)
		if !matchGlob(input.Name, string(ref)) && !matchGlob(input.Name, name) {
			continue
		}
		tm, err := ws.decls.DescribeType(ref)
		if err != nil {
			return errResult(err), nil, nil
		}
		matched = append(matched, summarize(tm, name))
	}

	page := paginate(matched, input.Offset, input.Limit)
	return nil, listSchemasOutput{
		Total:    len(refs),
		Matched:  len(matched),
		Returned: len(page),
		Schemas:  page,
	}, nil
}

func summarize(tm *meta.TypeMeta, name string) schemaSummary {
	s := schemaSummary{
		Ref:           string(tm.Ref),
		Name:          name,
		Enum:          tm.IsEnum(),
		PropertyCount: len(tm.Properties),
	}
	for _, p := range tm.Properties {
		if p.Declared() && p.Meta.Required {
			s.Required = append(s.Required, p.Meta.WireName(p.Field.Name))
		}
	}
	return s
}

type getSchemaInput struct {
	Declarations declarationInput `json:"declarations,omitempty" jsonschema:"The declaration document to read"`
	Type         string           `json:"type"                   jsonschema:"Type ref of the payload type\\, e.g. acme.User"`
}

type getSchemaOutput struct {
	Ref          string         `json:"ref"`
	Name         string         `json:"name"`
	Schema       map[string]any `json:"schema"`
	Dependencies []string       `json:"dependencies,omitempty"`
}

func handleGetSchema(ctx context.Context, _ *mcp.CallToolRequest, input getSchemaInput) (*mcp.CallToolResult, any, error) {
	if input.Type == "" {
		return errResult(fmt.Errorf("type is required")), nil, nil
	}
	ws, err := input.Declarations.resolve(ctx)
	if err != nil {
		return errResult(err), nil, nil
	}
	ref := meta.TypeRef(input.Type)
	if err := ws.registry.Ensure(ref); err != nil {
		return errResult(err), nil, nil
	}
	name := ws.registry.SchemaName(ref)
	doc, ok := ws.registry.Lookup(name)
	if !ok {
		return errResult(fmt.Errorf("schema %s was not recorded", name)), nil, nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return errResult(err), nil, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return errResult(err), nil, nil
	}

	out := getSchemaOutput{Ref: input.Type, Name: name, Schema: obj}
	for _, dep := range doc.Dependencies {
		out.Dependencies = append(out.Dependencies, ws.registry.SchemaName(dep))
	}
	return nil, out, nil
}
