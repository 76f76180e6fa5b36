package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/erraggy/dtoapi"
	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/response"
	"github.com/erraggy/dtoapi/schema"
	"github.com/erraggy/dtoapi/validate"
)

// declarationInput represents the ways a declaration file can be provided
// to a tool. At most one of File, URL, or Content may be set; when none is
// set the server's default declaration file is used.
type declarationInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a declaration file on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch a declaration file from"`
	Content string `json:"content,omitempty" jsonschema:"Inline declaration document (YAML or JSON)"`
}

// defaultDeclarations is the file used when a tool call names none. Set
// once by Run.
var defaultDeclarations string

// workspace bundles the engines built over one declaration document.
// Engines cache their derivations, so a cached workspace answers repeated
// calls without deriving again.
type workspace struct {
	decls     *meta.Declarations
	registry  *schema.Registry
	resolver  *response.Resolver
	validator *validate.Validator
}

func newWorkspace(d *meta.Declarations) *workspace {
	factory := schema.NewFactory(d, schema.WithNaming(cfg.Naming))
	return &workspace{
		decls:     d,
		registry:  schema.NewRegistry(factory),
		resolver:  response.New(d, d.DefaultResponses()),
		validator: validate.New(d),
	}
}

// workspaces is the session cache of parsed declaration documents. File
// inputs are keyed by (absolutePath, modTime) and content inputs by a
// SHA-256 hash. URL inputs are never cached.
var workspaces = newWorkspaceCache(cfg.CacheMaxSize)

func newWorkspaceCache(size int) *lru.Cache[string, *workspace] {
	c, err := lru.New[string, *workspace](size)
	if err != nil {
		panic(fmt.Sprintf("mcpserver: workspace cache: %v", err))
	}
	return c
}

// makeCacheKey creates a cache key for the given input, or "" when the
// input must not be cached.
func makeCacheKey(in declarationInput) string {
	switch {
	case in.File != "":
		absPath, err := filepath.Abs(in.File)
		if err != nil {
			return ""
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return "" // Can't stat, don't cache.
		}
		return fmt.Sprintf("file:%s:%d", absPath, info.ModTime().UnixNano())
	case in.Content != "":
		h := sha256.Sum256([]byte(in.Content))
		return "content:" + hex.EncodeToString(h[:])
	default:
		return ""
	}
}

// resolve loads the declaration document from whichever input was
// provided, using the workspace cache for file and content inputs.
func (in declarationInput) resolve(ctx context.Context) (*workspace, error) {
	count := 0
	for _, s := range []string{in.File, in.URL, in.Content} {
		if s != "" {
			count++
		}
	}
	switch {
	case count > 1:
		return nil, fmt.Errorf("at most one of file, url, or content may be provided (got %d)", count)
	case count == 0 && defaultDeclarations == "":
		return nil, fmt.Errorf("one of file, url, or content must be provided")
	case count == 0:
		in.File = defaultDeclarations
	}

	if in.Content != "" && int64(len(in.Content)) > cfg.MaxInlineSize {
		return nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set DTOAPI_MCP_MAX_INLINE_SIZE to increase",
			len(in.Content), cfg.MaxInlineSize)
	}

	var key string
	if cfg.CacheEnabled {
		key = makeCacheKey(in)
	}
	if key != "" {
		if ws, ok := workspaces.Get(key); ok {
			return ws, nil
		}
	}

	data, err := in.read(ctx)
	if err != nil {
		return nil, err
	}
	d, err := meta.ParseDeclarations(data)
	if err != nil {
		return nil, err
	}
	ws := newWorkspace(d)
	if key != "" {
		workspaces.Add(key, ws)
	}
	return ws, nil
}

func (in declarationInput) read(ctx context.Context) ([]byte, error) {
	switch {
	case in.File != "":
		return os.ReadFile(in.File)
	case in.URL != "":
		return fetch(ctx, in.URL)
	default:
		return []byte(in.Content), nil
	}
}

// fetch downloads a declaration document, refusing private addresses
// unless DTOAPI_MCP_ALLOW_PRIVATE_IPS is set.
func fetch(ctx context.Context, url string) ([]byte, error) {
	client := http.DefaultClient
	if !cfg.AllowPrivateIPs {
		client = newSafeHTTPClient()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", dtoapi.UserAgent())
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxInlineSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > cfg.MaxInlineSize {
		return nil, fmt.Errorf("declaration document at %s exceeds maximum %d bytes", url, cfg.MaxInlineSize)
	}
	return data, nil
}
