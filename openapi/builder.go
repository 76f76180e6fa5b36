package openapi

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/erraggy/dtoapi/dtoerrors"
	"github.com/erraggy/dtoapi/internal/httputil"
	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/response"
	"github.com/erraggy/dtoapi/schema"
)

// Option configures a Builder.
type Option func(*Builder)

// WithDescription sets the document description.
func WithDescription(desc string) Option {
	return func(b *Builder) {
		b.info.Description = desc
	}
}

// WithTagDescription documents a tag. Tags are listed only when used by an
// operation.
func WithTagDescription(name, desc string) Option {
	return func(b *Builder) {
		b.tagDescriptions[name] = desc
	}
}

// WithLogger sets the logger for responses whose payload schema cannot be
// derived.
func WithLogger(l meta.Logger) Option {
	return func(b *Builder) {
		b.logger = meta.OrNop(l)
	}
}

type route struct {
	method string
	path   string
	ref    meta.OperationRef
}

// Builder assembles an OpenAPI document from routed operations. Paths,
// methods and operation refs come from the caller; request and response
// shapes come from the metadata provider, the response resolver and the
// schema registry.
//
// Concurrency: Builder instances are not safe for concurrent use.
type Builder struct {
	provider meta.Provider
	registry *schema.Registry
	resolver *response.Resolver
	logger   meta.Logger

	info            Info
	tagDescriptions map[string]string

	routes    []route
	routeKeys map[string]bool
	refs      map[meta.OperationRef]string
	errors    []error
}

// New creates a builder.
func New(provider meta.Provider, registry *schema.Registry, resolver *response.Resolver, title, version string, opts ...Option) *Builder {
	b := &Builder{
		provider:        provider,
		registry:        registry,
		resolver:        resolver,
		logger:          meta.NopLogger{},
		info:            Info{Title: title, Version: version},
		tagDescriptions: make(map[string]string),
		routeKeys:       make(map[string]bool),
		refs:            make(map[meta.OperationRef]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddRoute binds operation ref to method and path. Invalid methods,
// duplicate routes and operations routed twice are reported by Build.
func (b *Builder) AddRoute(method, path string, ref meta.OperationRef) *Builder {
	m, ok := httputil.NormalizeMethod(method)
	location := strings.ToUpper(m) + " " + path
	switch {
	case !ok:
		b.errors = append(b.errors, &dtoerrors.ConfigError{
			Option:  "route",
			Value:   method,
			Message: "unsupported HTTP method for " + path,
		})
		return b
	case !strings.HasPrefix(path, "/"):
		b.errors = append(b.errors, &dtoerrors.ConfigError{
			Option:  "route",
			Value:   path,
			Message: "path must start with /",
		})
		return b
	case b.routeKeys[location]:
		b.errors = append(b.errors, &dtoerrors.ConfigError{
			Option:  "route",
			Value:   location,
			Message: "route already defined",
		})
		return b
	}
	if first, dup := b.refs[ref]; dup {
		b.errors = append(b.errors, &dtoerrors.ConfigError{
			Option:  "route",
			Value:   string(ref),
			Message: fmt.Sprintf("operation already routed at %s", first),
		})
		return b
	}
	b.routeKeys[location] = true
	b.refs[ref] = location
	b.routes = append(b.routes, route{method: m, path: path, ref: ref})
	return b
}

// Build assembles the document. Route errors, unknown operations, request
// payloads that cannot be derived and schema name collisions fail the
// build; response payloads that cannot be derived are documented without
// content.
func (b *Builder) Build() (*Document, error) {
	if len(b.errors) > 0 {
		return nil, errors.Join(b.errors...)
	}
	doc := &Document{
		OpenAPI: Version,
		Info:    b.info,
		Paths:   make(map[string]*PathItem),
	}
	used := make(map[string]bool)
	for _, r := range b.routes {
		op, err := b.operation(r)
		if err != nil {
			return nil, err
		}
		for _, tag := range op.Tags {
			used[tag] = true
		}
		item, ok := doc.Paths[r.path]
		if !ok {
			item = &PathItem{}
			doc.Paths[r.path] = item
		}
		*item.slot(r.method) = op
	}
	for _, name := range slices.Sorted(maps.Keys(used)) {
		doc.Tags = append(doc.Tags, Tag{Name: name, Description: b.tagDescriptions[name]})
	}
	if schemas := b.registry.Export(); len(schemas) > 0 {
		doc.Components = &Components{Schemas: schemas}
	}
	return doc, nil
}

func (b *Builder) operation(r route) (*Operation, error) {
	om, err := b.provider.DescribeOperation(r.ref)
	if err != nil {
		return nil, err
	}
	op := &Operation{
		OperationID: string(om.Ref),
		Summary:     om.Summary,
		Description: om.Description,
		Deprecated:  om.Deprecated,
		Responses:   make(map[string]*Response),
	}
	if tag := operationTag(om); tag != "" {
		op.Tags = []string{tag}
	}

	if om.Request != "" {
		if err := b.registry.Ensure(om.Request); err != nil {
			return nil, fmt.Errorf("openapi: request body of %s: %w", om.Ref, err)
		}
		op.RequestBody = &RequestBody{
			Required: true,
			Content: map[string]*MediaType{
				meta.ContentTypeJSON: {Schema: schema.RefTo(b.registry.SchemaName(om.Request))},
			},
		}
	}

	table, err := b.resolver.ResolveOperation(r.ref)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		table = response.Table{response.Implicit}
	}
	for _, entry := range table {
		resp, err := b.response(om.Ref, entry)
		if err != nil {
			return nil, err
		}
		op.Responses[strconv.Itoa(entry.Status)] = resp
	}
	return op, nil
}

func (b *Builder) response(ref meta.OperationRef, entry response.Resolved) (*Response, error) {
	if !httputil.ValidStatusCode(entry.Status) {
		return nil, &dtoerrors.ConfigError{
			Option:  string(ref) + ".responses",
			Value:   entry.Status,
			Message: "status code out of range",
		}
	}
	if !httputil.IsValidMediaType(entry.ContentType) {
		return nil, &dtoerrors.ConfigError{
			Option:  string(ref) + ".responses",
			Value:   entry.ContentType,
			Message: "invalid content type",
		}
	}
	resp := &Response{Description: entry.DescriptionOrDefault()}
	if !entry.HasBody() {
		return resp, nil
	}
	if err := b.registry.Ensure(entry.Payload); err != nil {
		if errors.Is(err, dtoerrors.ErrNameCollision) {
			return nil, err
		}
		b.logger.Warn("documenting response without content", "operation", ref, "status", entry.Status, "payload", entry.Payload, "error", err)
		return resp, nil
	}
	resp.Content = map[string]*MediaType{
		entry.ContentType: {
			Schema: schema.RefTo(b.registry.SchemaName(entry.Payload)),
			Stream: entry.Stream,
		},
	}
	return resp, nil
}

// operationTag is the declared tag, else the operation ref's prefix before
// its last dot ("users" for "users.get").
func operationTag(om *meta.OperationMeta) string {
	if om.Tag != "" {
		return om.Tag
	}
	if i := strings.LastIndexByte(string(om.Ref), '.'); i > 0 {
		return string(om.Ref)[:i]
	}
	return ""
}
