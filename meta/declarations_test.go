package meta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/dtoapi/dtoerrors"
)

const sampleDeclarations = `
defaults:
  422: {payload: acme.ValidationError, description: Invalid payload}
  500: {payload: acme.Error}
types:
  - ref: acme.User
    description: A registered user
    responses:
      - {status: 200, description: The user}
    properties:
      - {name: id, type: integer, required: true, order: 1}
      - {field: Name, name: name, type: string, nullable: true, maxLength: 50}
      - name: roles
        type: array
        itemsRef: acme.Role
        uniqueItems: true
        extensions:
          x-internal: true
  - ref: acme.Role
    properties:
      - {name: name, type: string, required: true}
  - ref: acme.Status
    enum: [active, disabled]
  - ref: acme.Error
    responses:
      - {status: 500}
operations:
  - ref: users.get
    summary: Fetch a user
    responseTypes: [acme.User, acme.Error]
    responses:
      - {status: 204}
`

func TestParseDeclarations(t *testing.T) {
	d, err := ParseDeclarations([]byte(sampleDeclarations))
	require.NoError(t, err)

	assert.Equal(t, []TypeRef{"acme.User", "acme.Role", "acme.Status", "acme.Error"}, d.Types())
	assert.Equal(t, []OperationRef{"users.get"}, d.Operations())

	defaults := d.DefaultResponses()
	require.Len(t, defaults, 2)
	assert.Equal(t, TypeRef("acme.ValidationError"), defaults[422].Payload)

	user, err := d.DescribeType("acme.User")
	require.NoError(t, err)
	assert.Equal(t, "A registered user", user.Description)
	require.Len(t, user.Properties, 3)
	assert.Equal(t, "id", user.Properties[0].Field.Name)
	assert.Equal(t, "Name", user.Properties[1].Field.Name)
	assert.Equal(t, "name", user.Properties[1].Meta.Name)
	assert.True(t, user.Properties[1].Meta.Nullable)
	assert.Equal(t, 50, *user.Properties[1].Meta.MaxLength)
	assert.Equal(t, TypeRef("acme.Role"), user.Properties[2].Meta.ItemsRef)
	assert.Equal(t, true, user.Properties[2].Meta.Extensions["x-internal"])
	require.Len(t, user.Responses, 1)
	assert.Equal(t, TypeRef("acme.User"), user.Responses[0].Payload)

	status, err := d.DescribeType("acme.Status")
	require.NoError(t, err)
	assert.True(t, status.IsEnum())
	assert.Equal(t, []any{"active", "disabled"}, status.EnumValues)

	op, err := d.DescribeOperation("users.get")
	require.NoError(t, err)
	assert.Equal(t, "Fetch a user", op.Summary)
	assert.Equal(t, []TypeRef{"acme.User", "acme.Error"}, op.ResponseTypes)
	assert.Equal(t, 204, op.Responses[0].Status)

	_, err = d.DescribeType("acme.Missing")
	assert.ErrorIs(t, err, dtoerrors.ErrUnknownType)
	_, err = d.DescribeOperation("missing")
	assert.ErrorIs(t, err, dtoerrors.ErrUnknownOperation)
}

func TestParseDeclarationsErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "invalid yaml", yaml: "types: [\n"},
		{name: "empty type ref", yaml: "types:\n  - properties: []\n"},
		{name: "duplicate type", yaml: "types:\n  - ref: a.A\n  - ref: a.A\n"},
		{name: "unnamed property", yaml: "types:\n  - ref: a.A\n    properties:\n      - {type: string}\n"},
		{name: "duplicate wire name", yaml: "types:\n  - ref: a.A\n    properties:\n      - {name: x}\n      - {field: Y, name: x}\n"},
		{name: "empty operation ref", yaml: "operations:\n  - summary: x\n"},
		{name: "duplicate operation", yaml: "operations:\n  - ref: a\n  - ref: a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDeclarations([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, dtoerrors.ErrConfig)
		})
	}
}

func TestLoadDeclarations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dtoapi.decl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDeclarations), 0o600))

	d, err := LoadDeclarations(path)
	require.NoError(t, err)
	assert.Len(t, d.Types(), 4)

	_, err = LoadDeclarations(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
