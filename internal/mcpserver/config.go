package mcpserver

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/erraggy/dtoapi/schema"
)

// serverConfig holds the MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Workspace cache settings.
	CacheEnabled bool
	CacheMaxSize int

	// list_schemas defaults.
	ListLimit int
	MaxLimit  int

	// Input limits.
	MaxInlineSize   int64
	AllowPrivateIPs bool

	// Naming selects component schema names.
	Naming schema.NamingStrategy
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from DTOAPI_MCP_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		CacheEnabled:    envBool("DTOAPI_MCP_CACHE_ENABLED", true),
		CacheMaxSize:    envInt("DTOAPI_MCP_CACHE_MAX_SIZE", 10),
		ListLimit:       envInt("DTOAPI_MCP_LIST_LIMIT", 100),
		MaxLimit:        envInt("DTOAPI_MCP_MAX_LIMIT", 1000),
		MaxInlineSize:   int64(envInt("DTOAPI_MCP_MAX_INLINE_SIZE", 1<<20)),
		AllowPrivateIPs: envBool("DTOAPI_MCP_ALLOW_PRIVATE_IPS", false),
		Naming:          envNaming("DTOAPI_MCP_NAMING"),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envNaming(key string) schema.NamingStrategy {
	v := os.Getenv(key)
	strategy, err := schema.ParseNamingStrategy(v)
	if err != nil {
		slog.Warn("invalid naming env var, using type-only", "key", key, "value", v)
	}
	return strategy
}
