package normalize

import (
	"reflect"
	"time"

	"github.com/erraggy/dtoapi/internal/naming"
	"github.com/erraggy/dtoapi/meta"
)

// Default option values.
const (
	DefaultMaxDepth    = 8
	DefaultMaxTraverse = 10000
	DefaultDateFormat  = time.RFC3339
)

// Options controls one normalization.
type Options struct {
	// Deep expands nested values. When false only the root is expanded.
	Deep bool
	// MaxDepth is the depth at which values degrade to text or a placeholder.
	MaxDepth int
	// IncludeNull keeps entries whose normalized value is nil.
	IncludeNull bool
	// DateFormat is the time.Time layout.
	DateFormat string
	// MaxTraverse caps the elements processed per collection; excess is dropped.
	MaxTraverse int
	// PropertyFilter excludes struct fields when it returns false. It
	// receives the Go field name, the field value and the owning struct.
	PropertyFilter func(name string, value, owner reflect.Value) bool
	// NameTransform rewrites struct field names.
	NameTransform func(name string) string
	// ShapeLists turns maps keyed 0..n-1 into lists.
	ShapeLists bool
	// Handlers run after the built-in handlers and before the struct fallback.
	Handlers []Handler
	// Logger receives diagnostics; nil means meta.NopLogger.
	Logger meta.Logger
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Deep:        true,
		MaxDepth:    DefaultMaxDepth,
		IncludeNull: true,
		DateFormat:  DefaultDateFormat,
		MaxTraverse: DefaultMaxTraverse,
		ShapeLists:  true,
	}
}

// Option configures a Normalizer or a single Normalize call.
type Option func(*Options)

// WithDeep sets whether nested values are expanded.
func WithDeep(deep bool) Option {
	return func(o *Options) { o.Deep = deep }
}

// WithMaxDepth sets the depth at which values degrade.
func WithMaxDepth(depth int) Option {
	return func(o *Options) { o.MaxDepth = depth }
}

// WithIncludeNull sets whether nil entries are kept.
func WithIncludeNull(include bool) Option {
	return func(o *Options) { o.IncludeNull = include }
}

// WithDateFormat sets the time.Time layout.
func WithDateFormat(layout string) Option {
	return func(o *Options) { o.DateFormat = layout }
}

// WithMaxTraverse sets the per-collection element cap.
func WithMaxTraverse(n int) Option {
	return func(o *Options) { o.MaxTraverse = n }
}

// WithPropertyFilter sets the struct field filter.
func WithPropertyFilter(f func(name string, value, owner reflect.Value) bool) Option {
	return func(o *Options) { o.PropertyFilter = f }
}

// WithNameTransform sets the struct field name rewrite.
func WithNameTransform(f func(string) string) Option {
	return func(o *Options) { o.NameTransform = f }
}

// WithShapeLists sets whether maps keyed 0..n-1 become lists.
func WithShapeLists(shape bool) Option {
	return func(o *Options) { o.ShapeLists = shape }
}

// WithHandler appends a custom handler.
func WithHandler(h Handler) Option {
	return func(o *Options) { o.Handlers = append(o.Handlers, h) }
}

// WithLogger sets the logger.
func WithLogger(l meta.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Name transforms for WithNameTransform.
var (
	// SnakeCase rewrites "CreatedAt" as "created_at".
	SnakeCase = naming.ToSnakeCase
	// CamelCase rewrites "CreatedAt" as "createdAt".
	CamelCase = naming.ToCamelCase
)

// ExportedOnly is a PropertyFilter that drops unexported fields.
func ExportedOnly(name string, _, _ reflect.Value) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}
