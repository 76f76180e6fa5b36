package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/dtoapi/dtoerrors"
	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/normalize"
	"github.com/erraggy/dtoapi/schema"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dtoapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "type-only", cfg.Schema.Naming)
	assert.Equal(t, NormalizerConfig{
		Deep:        true,
		MaxDepth:    normalize.DefaultMaxDepth,
		IncludeNull: true,
		DateFormat:  normalize.DefaultDateFormat,
		MaxTraverse: normalize.DefaultMaxTraverse,
		ShapeLists:  true,
	}, cfg.Normalizer)
	assert.Equal(t, Default(), cfg)

	defaults, err := cfg.Defaults()
	require.NoError(t, err)
	assert.Empty(t, defaults)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
default_responses:
  "404":
    payload: acme.NotFound
    description: Not found
  "500":
    payload: acme.Error
    content_type: application/problem+json
normalizer:
  deep: false
  max_depth: 3
  date_format: "2006-01-02"
schema:
  naming: pascal
openapi:
  title: Users API
  version: 2.0.0
  tags:
    users: User lookups
  routes:
    - {method: get, path: "/users/{id}", operation: users.get}
server:
  addr: 127.0.0.1:9000
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	defaults, err := cfg.Defaults()
	require.NoError(t, err)
	assert.Equal(t, map[int]meta.DefaultResponse{
		404: {Payload: "acme.NotFound", Description: "Not found"},
		500: {Payload: "acme.Error", ContentType: "application/problem+json"},
	}, defaults)

	assert.False(t, cfg.Normalizer.Deep)
	assert.Equal(t, 3, cfg.Normalizer.MaxDepth)
	assert.Equal(t, "2006-01-02", cfg.Normalizer.DateFormat)
	assert.True(t, cfg.Normalizer.IncludeNull)
	assert.Len(t, cfg.NormalizerOptions(), 6)

	assert.Equal(t, "Users API", cfg.OpenAPI.Title)
	assert.Equal(t, "2.0.0", cfg.OpenAPI.Version)
	assert.Equal(t, map[string]string{"users": "User lookups"}, cfg.OpenAPI.Tags)
	assert.Equal(t, []Route{{Method: "get", Path: "/users/{id}", Operation: "users.get"}}, cfg.OpenAPI.Routes)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	opts, err := cfg.SchemaOptions()
	require.NoError(t, err)
	f := schema.NewFactory(meta.NewReflectProvider(), opts...)
	assert.Equal(t, "AcmeUser", f.Namer().Name("acme.User"))
}

func TestNormalizerOptions(t *testing.T) {
	cfg := Default()
	cfg.Normalizer.IncludeNull = false

	n := normalize.New(cfg.NormalizerOptions()...)
	got := n.Normalize(map[string]any{"a": nil, "b": 1})
	assert.Equal(t, map[string]any{"b": int64(1)}, got)
	assert.False(t, n.Options().IncludeNull)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DTOAPI_SERVER_ADDR", ":9999")
	t.Setenv("DTOAPI_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		option string
	}{
		{name: "status key", config: "default_responses:\n  ok: {payload: acme.User}\n", option: "default_responses.ok"},
		{name: "status range", config: "default_responses:\n  \"99\": {payload: acme.User}\n", option: "default_responses.99"},
		{name: "content type", config: "default_responses:\n  \"200\": {content_type: \"*/json\"}\n", option: "default_responses.200.content_type"},
		{name: "content type subtype", config: "default_responses:\n  \"200\": {content_type: application}\n", option: "default_responses.200.content_type"},
		{name: "naming", config: "schema:\n  naming: kebab\n", option: "schema.naming"},
		{name: "template", config: "schema:\n  template: \"{{.Nope\"\n", option: "schema.template"},
		{name: "max depth", config: "normalizer:\n  max_depth: -1\n", option: "normalizer.max_depth"},
		{name: "date format", config: "normalizer:\n  date_format: \"\"\n", option: "normalizer.date_format"},
		{name: "route method", config: "openapi:\n  routes:\n    - {method: fetch, path: /x, operation: x}\n", option: "openapi.routes[0].method"},
		{name: "route operation", config: "openapi:\n  routes:\n    - {method: get, path: /x}\n", option: "openapi.routes[0].operation"},
		{name: "log level", config: "log:\n  level: loud\n", option: "log.level"},
		{name: "log format", config: "log:\n  format: xml\n", option: "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.config))
			require.Error(t, err)
			assert.ErrorIs(t, err, dtoerrors.ErrConfig)
			assert.Contains(t, err.Error(), tt.option)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept", "ref", "acme.User")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"ref":"acme.User"`)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelError))
}
