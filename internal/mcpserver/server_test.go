package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []int
	}{
		{name: "default limit returns all", offset: 0, limit: 0, want: []int{0, 1, 2, 3, 4}},
		{name: "explicit limit", offset: 0, limit: 2, want: []int{0, 1}},
		{name: "offset and limit", offset: 1, limit: 2, want: []int{1, 2}},
		{name: "offset beyond end", offset: 5, limit: 2, want: nil},
		{name: "negative offset", offset: -1, limit: 2, want: nil},
		{name: "limit exceeds remaining", offset: 3, limit: 10, want: []int{3, 4}},
		{name: "overflow", offset: 1, limit: math.MaxInt, want: []int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paginate(items, tt.offset, tt.limit))
		})
	}

	t.Run("max limit caps the page", func(t *testing.T) {
		withConfig(t, func(c *serverConfig) { c.MaxLimit = 3 })
		assert.Equal(t, []int{0, 1, 2}, paginate(items, 0, 10))
	})
}

func TestSanitizeError(t *testing.T) {
	assert.Empty(t, sanitizeError(nil))
	assert.Equal(t, "open <path>: no such file", sanitizeError(errors.New("open /home/dev/decl.yaml: no such file")))
	assert.Equal(t, "unknown type acme.User", sanitizeError(errors.New("unknown type acme.User")))
}

func TestMatchGlob(t *testing.T) {
	assert.True(t, matchGlob("", "acme.User"))
	assert.True(t, matchGlob("acme.User", "acme.User"))
	assert.False(t, matchGlob("acme.Use", "acme.User"))
	assert.True(t, matchGlob("acme.*", "acme.User"))
	assert.True(t, matchGlob("Us?r", "User"))
	assert.Error(t, validateGlobPattern("[acme"))
	assert.NoError(t, validateGlobPattern("acme.*"))
}

// startTestSession creates an in-process MCP server/client pair and returns
// the connected client session. The server is shut down when the test ends.
func startTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	server := mcp.NewServer(
		&mcp.Implementation{Name: "dtoapi-test", Version: "test"},
		nil,
	)
	registerAllTools(server)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(
		&mcp.Implementation{Name: "test-client", Version: "test"},
		nil,
	)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})

	return session
}

func TestIntegration_ListTools(t *testing.T) {
	session := startTestSession(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, "tool %q has empty description", tool.Name)
	}
	slices.Sort(names)
	assert.Equal(t, []string{"get_schema", "list_schemas", "resolve_responses", "validate_payload"}, names)
}

func TestIntegration_CallTools(t *testing.T) {
	resetWorkspaces(t)
	session := startTestSession(t)
	decls := map[string]any{"content": testDeclarations}

	t.Run("get_schema", func(t *testing.T) {
		result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      "get_schema",
			Arguments: map[string]any{"declarations": decls, "type": "acme.Role"},
		})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		structured := unmarshalStructured(t, result)
		assert.Equal(t, "Role", structured["name"])
	})

	t.Run("validate_payload", func(t *testing.T) {
		result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      "validate_payload",
			Arguments: map[string]any{"declarations": decls, "type": "acme.Role", "payload": `{"name": ""}`},
		})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		structured := unmarshalStructured(t, result)
		assert.Equal(t, false, structured["valid"])
		assert.Equal(t, float64(1), structured["violation_count"])
		body, ok := structured["error"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(422), body["status"])
		assert.Equal(t, "Validation error", body["type"])
	})

	t.Run("tool error", func(t *testing.T) {
		result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      "resolve_responses",
			Arguments: map[string]any{"declarations": decls, "operation": "users.missing"},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func unmarshalStructured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()

	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	require.NotEmpty(t, result.Content, "expected at least one content item")
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &m), "failed to parse text content as JSON")
	return m
}
