package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erraggy/dtoapi/schema"
)

// clearMCPEnv clears all DTOAPI_MCP_* env vars to isolate tests from the ambient environment.
func clearMCPEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DTOAPI_MCP_CACHE_ENABLED", "DTOAPI_MCP_CACHE_MAX_SIZE",
		"DTOAPI_MCP_LIST_LIMIT", "DTOAPI_MCP_MAX_LIMIT",
		"DTOAPI_MCP_MAX_INLINE_SIZE", "DTOAPI_MCP_ALLOW_PRIVATE_IPS",
		"DTOAPI_MCP_NAMING",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearMCPEnv(t)

	c := loadConfig()

	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 10, c.CacheMaxSize)
	assert.Equal(t, 100, c.ListLimit)
	assert.Equal(t, 1000, c.MaxLimit)
	assert.Equal(t, int64(1<<20), c.MaxInlineSize)
	assert.False(t, c.AllowPrivateIPs)
	assert.Equal(t, schema.NamingTypeOnly, c.Naming)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearMCPEnv(t)
	t.Setenv("DTOAPI_MCP_CACHE_ENABLED", "false")
	t.Setenv("DTOAPI_MCP_CACHE_MAX_SIZE", "50")
	t.Setenv("DTOAPI_MCP_LIST_LIMIT", "20")
	t.Setenv("DTOAPI_MCP_MAX_LIMIT", "500")
	t.Setenv("DTOAPI_MCP_MAX_INLINE_SIZE", "2048")
	t.Setenv("DTOAPI_MCP_ALLOW_PRIVATE_IPS", "true")
	t.Setenv("DTOAPI_MCP_NAMING", "pascal")

	c := loadConfig()

	assert.False(t, c.CacheEnabled)
	assert.Equal(t, 50, c.CacheMaxSize)
	assert.Equal(t, 20, c.ListLimit)
	assert.Equal(t, 500, c.MaxLimit)
	assert.Equal(t, int64(2048), c.MaxInlineSize)
	assert.True(t, c.AllowPrivateIPs)
	assert.Equal(t, schema.NamingPascalCase, c.Naming)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	clearMCPEnv(t)
	t.Setenv("DTOAPI_MCP_CACHE_ENABLED", "maybe")
	t.Setenv("DTOAPI_MCP_CACHE_MAX_SIZE", "-3")
	t.Setenv("DTOAPI_MCP_LIST_LIMIT", "lots")
	t.Setenv("DTOAPI_MCP_NAMING", "kebab")

	c := loadConfig()

	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 10, c.CacheMaxSize)
	assert.Equal(t, 100, c.ListLimit)
	assert.Equal(t, schema.NamingTypeOnly, c.Naming)
}

// withConfig replaces the active configuration for the duration of a test.
func withConfig(t *testing.T, mutate func(c *serverConfig)) {
	t.Helper()
	saved := cfg
	c := *saved
	mutate(&c)
	cfg = &c
	t.Cleanup(func() { cfg = saved })
}
