package mcpserver

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/validate"
)

type validatePayloadInput struct {
	Declarations declarationInput `json:"declarations,omitempty" jsonschema:"The declaration document to read"`
	Type         string           `json:"type"                   jsonschema:"Type ref of the payload type\\, e.g. acme.User"`
	Payload      string           `json:"payload"                jsonschema:"The JSON payload to validate"`
}

type validatePayloadOutput struct {
	Valid          bool                              `json:"valid"`
	ViolationCount int                               `json:"violation_count"`
	Error          *validate.ValidationErrorResponse `json:"error,omitempty" jsonschema:"The 422 response body for an invalid payload"`
}

func handleValidatePayload(ctx context.Context, _ *mcp.CallToolRequest, input validatePayloadInput) (*mcp.CallToolResult, any, error) {
	if input.Type == "" {
		return errResult(fmt.Errorf("type is required")), nil, nil
	}
	var payload any
	if err := json.Unmarshal([]byte(input.Payload), &payload); err != nil {
		return errResult(fmt.Errorf("payload is not valid JSON: %w", err)), nil, nil
	}
	ws, err := input.Declarations.resolve(ctx)
	if err != nil {
		return errResult(err), nil, nil
	}
	violations, err := ws.validator.Validate(meta.TypeRef(input.Type), payload)
	if err != nil {
		return errResult(err), nil, nil
	}
	out := validatePayloadOutput{
		Valid:          len(violations) == 0,
		ViolationCount: len(violations),
	}
	if !out.Valid {
		body := violations.Response()
		out.Error = &body
	}
	return nil, out, nil
}
