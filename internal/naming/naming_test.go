package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "user", want: []string{"user"}},
		{name: "camel", input: "userProfile", want: []string{"user", "Profile"}},
		{name: "pascal", input: "UserProfile", want: []string{"User", "Profile"}},
		{name: "acronym prefix", input: "APIClient", want: []string{"API", "Client"}},
		{name: "acronym suffix", input: "userID", want: []string{"user", "ID"}},
		{name: "all caps", input: "ID", want: []string{"ID"}},
		{name: "separators", input: "get_user-by.id/v1 x", want: []string{"get", "user", "by", "id", "v1", "x"}},
		{name: "digit then upper", input: "v2Users", want: []string{"v2", "Users"}},
		{name: "double separator", input: "double__under", want: []string{"double", "under"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Words(tt.input))
		})
	}
}

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty string", input: "", want: ""},
		{name: "single lowercase letter", input: "a", want: "A"},
		{name: "snake_case simple", input: "user_profile", want: "UserProfile"},
		{name: "snake_case three words", input: "get_user_by_id", want: "GetUserById"},
		{name: "leading underscore", input: "_private", want: "Private"},
		{name: "kebab-case simple", input: "api-client", want: "ApiClient"},
		{name: "dot separator", input: "com.example.api", want: "ComExampleApi"},
		{name: "path-like", input: "/api/v1/users", want: "ApiV1Users"},
		{name: "acronym preserved", input: "APIClient", want: "APIClient"},
		{name: "camel input", input: "userProfile", want: "UserProfile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToPascalCase(tt.input))
		})
	}
}

func TestToCamelCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"user_profile", "userProfile"},
		{"UserProfile", "userProfile"},
		{"APIClient", "apiClient"},
		{"ID", "id"},
		{"created_at", "createdAt"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCamelCase(tt.input))
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"UserProfile", "user_profile"},
		{"APIClient", "api_client"},
		{"userID", "user_id"},
		{"createdAt", "created_at"},
		{"already_snake", "already_snake"},
		{"kebab-case", "kebab_case"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSnakeCase(tt.input))
		})
	}
}

func TestToKebabCase(t *testing.T) {
	assert.Equal(t, "user-profile", ToKebabCase("UserProfile"))
	assert.Equal(t, "api-client", ToKebabCase("APIClient"))
}

func TestToTitleCase(t *testing.T) {
	assert.Equal(t, "", ToTitleCase(""))
	assert.Equal(t, "Hello", ToTitleCase("hello"))
	assert.Equal(t, "Hello World", ToTitleCase("hello world"))
	assert.Equal(t, "HTTP Client", ToTitleCase("HTTP client"))
}
