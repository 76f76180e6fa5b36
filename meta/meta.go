// Package meta defines the shared metadata vocabulary of dtoapi: per-property
// schema and validation hints, response and operation declarations, and the
// Provider capability through which every other component discovers them.
//
// Records in this package are plain values. They are built once from static
// declarations (struct tags through [ReflectProvider], YAML tables through
// [Declarations], or any custom Provider) and are treated as immutable
// afterwards.
package meta

import (
	"reflect"
	"time"
)

// Type tags for PropertyMeta.Type and PropertyMeta.ItemsType.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Format tags for PropertyMeta.Format.
const (
	FormatDateTime = "date-time"
	FormatDate     = "date"
	FormatTime     = "time"
	FormatEmail    = "email"
	FormatUUID     = "uuid"
	FormatURI      = "uri"
	FormatURL      = "url"
	FormatInt64    = "int64"
	FormatFloat    = "float"
)

// Content types used when a response does not declare one.
const (
	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"
)

// ExtensionPrefix marks PropertyMeta.Extensions keys that are copied into schema fragments.
const ExtensionPrefix = "x-"

// AssertExtension is the PropertyMeta.Extensions key holding ad hoc rule declarations.
const AssertExtension = "assert"

// DefaultContentType returns the content type used when none is declared.
func DefaultContentType(stream bool) string {
	if stream {
		return ContentTypeNDJSON
	}
	return ContentTypeJSON
}

// PropertyMeta carries the schema and validation hints of one payload field.
//
// Pointer-valued bounds distinguish "absent" from a zero bound. ReadOnly and
// WriteOnly are tri-state: nil means "not declared".
type PropertyMeta struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Type        string `yaml:"type,omitempty"`
	Format      string `yaml:"format,omitempty"`
	Nullable    bool   `yaml:"nullable,omitempty"`

	ItemsType string  `yaml:"itemsType,omitempty"`
	ItemsRef  TypeRef `yaml:"itemsRef,omitempty"`

	Enum    []any   `yaml:"enum,omitempty"`
	EnumRef TypeRef `yaml:"enumRef,omitempty"`

	MinLength *int   `yaml:"minLength,omitempty"`
	MaxLength *int   `yaml:"maxLength,omitempty"`
	Pattern   string `yaml:"pattern,omitempty"`

	Minimum          *float64 `yaml:"minimum,omitempty"`
	Maximum          *float64 `yaml:"maximum,omitempty"`
	ExclusiveMinimum bool     `yaml:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum bool     `yaml:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `yaml:"multipleOf,omitempty"`

	MinItems    *int `yaml:"minItems,omitempty"`
	MaxItems    *int `yaml:"maxItems,omitempty"`
	UniqueItems bool `yaml:"uniqueItems,omitempty"`

	Required bool  `yaml:"required,omitempty"`
	Default  any   `yaml:"default,omitempty"`
	Example  any   `yaml:"example,omitempty"`
	Examples []any `yaml:"examples,omitempty"`

	ReadOnly          *bool  `yaml:"readOnly,omitempty"`
	WriteOnly         *bool  `yaml:"writeOnly,omitempty"`
	Deprecated        bool   `yaml:"deprecated,omitempty"`
	DeprecationReason string `yaml:"deprecationReason,omitempty"`

	// Order sorts properties ascending; unordered properties sort last.
	Order *int `yaml:"order,omitempty"`

	// Extensions holds free-form metadata. Keys with ExtensionPrefix are
	// copied into the schema; the AssertExtension key declares ad hoc rules.
	Extensions map[string]any `yaml:"extensions,omitempty"`
}

// WireName returns the property's wire name, defaulting to field.
func (p *PropertyMeta) WireName(field string) string {
	if p != nil && p.Name != "" {
		return p.Name
	}
	return field
}

// ResponseMeta declares one response shape. An empty Payload means "no body".
type ResponseMeta struct {
	Status      int     `yaml:"status"`
	Payload     TypeRef `yaml:"payload,omitempty"`
	ContentType string  `yaml:"contentType,omitempty"`
	Stream      bool    `yaml:"stream,omitempty"`
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
}

// DefaultResponse is one entry of the global default tier, keyed by status.
type DefaultResponse struct {
	Payload     TypeRef `yaml:"payload,omitempty" mapstructure:"payload"`
	Description string  `yaml:"description,omitempty" mapstructure:"description"`
	ContentType string  `yaml:"contentType,omitempty" mapstructure:"content_type"`
	Stream      bool    `yaml:"stream,omitempty" mapstructure:"stream"`
}

// OperationMeta describes one API operation.
type OperationMeta struct {
	Ref         OperationRef `yaml:"ref"`
	Summary     string       `yaml:"summary,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Tag         string       `yaml:"tag,omitempty"`
	Request     TypeRef      `yaml:"request,omitempty"`

	// ResponseTypes are payload types whose type-level responses apply.
	ResponseTypes []TypeRef `yaml:"responseTypes,omitempty"`
	// Responses are method-level declarations; they take precedence.
	Responses []ResponseMeta `yaml:"responses,omitempty"`

	Stream     bool  `yaml:"stream,omitempty"`
	Status     []int `yaml:"status,omitempty"`
	Deprecated bool  `yaml:"deprecated,omitempty"`
}

// FieldDescriptor identifies the source field a property is declared on.
type FieldDescriptor struct {
	// Name is the Go (or declared) field name.
	Name string
	// Index is the reflect field index path; nil for declared-only fields.
	Index []int
	// Type is the field's static type; nil when unknown.
	Type reflect.Type
}

// Property pairs a field with its metadata. A nil Meta marks an undeclared
// field, which is invisible to the contract.
type Property struct {
	Field FieldDescriptor
	Meta  *PropertyMeta
}

// Declared reports whether the property carries metadata.
func (p Property) Declared() bool { return p.Meta != nil }

// TypeMeta describes one payload type.
type TypeMeta struct {
	Ref TypeRef
	// GoType is the backing Go type, if any.
	GoType reflect.Type
	// Name and Description are type-level documentation.
	Name        string
	Description string
	// Properties are in source-declaration order.
	Properties []Property
	// Responses are the type-level response declarations. Resolution uses
	// the first one.
	Responses []ResponseMeta
	// EnumValues is non-nil for enumeration types.
	EnumValues []any
}

// IsEnum reports whether the type is an enumeration.
func (t *TypeMeta) IsEnum() bool { return t != nil && t.EnumValues != nil }

// Provider discovers declared metadata. Unknown references yield a
// *dtoerrors.ReferenceError.
type Provider interface {
	DescribeType(ref TypeRef) (*TypeMeta, error)
	DescribeOperation(ref OperationRef) (*OperationMeta, error)
}

// Enum is implemented by Go enumeration types to list their allowed values.
type Enum interface {
	EnumValues() []any
}

var (
	timeType      = reflect.TypeFor[time.Time]()
	enumType      = reflect.TypeFor[Enum]()
	byteSliceType = reflect.TypeFor[[]byte]()
)

// InferTypeTag derives a type tag from a Go type. Pointers are dereferenced.
// time.Time and []byte infer "string". A nil type infers "".
func InferTypeTag(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType || t == byteSliceType {
		return TypeString
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Bool:
		return TypeBoolean
	case reflect.Slice, reflect.Array:
		return TypeArray
	default:
		return TypeObject
	}
}

// IsStructType reports whether t (after dereferencing pointers) is a struct
// other than time.Time.
func IsStructType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType
}

// implementsEnum reports whether t or *t implements Enum.
func implementsEnum(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Implements(enumType) || reflect.PointerTo(t).Implements(enumType)
}
