package schema

import (
	"strings"

	"github.com/goccy/go-json"
)

// RefPrefix is the location of component schemas referenced by $ref.
const RefPrefix = "#/components/schemas/"

// Schema is one property's schema fragment. Only the keywords dtoapi
// produces are modeled.
//
// Type is either a string or, for nullable primitives, a []string union
// such as ["null", "string"].
type Schema struct {
	Ref         string `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Type        any    `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Nullable    bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	ReadOnly    *bool  `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	WriteOnly   *bool  `json:"writeOnly,omitempty" yaml:"writeOnly,omitempty"`

	Default  any   `json:"default,omitempty" yaml:"default,omitempty"`
	Example  any   `json:"example,omitempty" yaml:"example,omitempty"`
	Examples []any `json:"examples,omitempty" yaml:"examples,omitempty"`

	// String keywords
	MinLength *int   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Numeric keywords
	Minimum          *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	ExclusiveMinimum bool     `json:"exclusiveMinimum,omitempty" yaml:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum bool     `json:"exclusiveMaximum,omitempty" yaml:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty" yaml:"multipleOf,omitempty"`

	// Array keywords
	Items       *Schema `json:"items,omitempty" yaml:"items,omitempty"`
	MinItems    *int    `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems    *int    `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	UniqueItems bool    `json:"uniqueItems,omitempty" yaml:"uniqueItems,omitempty"`

	Enum []any `json:"enum,omitempty" yaml:"enum,omitempty"`

	// Extensions holds x-* keywords, inlined when marshaled.
	Extensions map[string]any `json:"-" yaml:",inline"`
}

// RefTo returns a fragment referencing the component schema name.
func RefTo(name string) *Schema {
	return &Schema{Ref: RefPrefix + name}
}

// TypeTags returns the fragment's type as a list: one element for a plain
// type, two for a nullable union, none when unset.
func (s *Schema) TypeTags() []string {
	switch t := s.Type.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	}
	return nil
}

// HasType reports whether tag is one of the fragment's type tags.
func (s *Schema) HasType(tag string) bool {
	for _, t := range s.TypeTags() {
		if t == tag {
			return true
		}
	}
	return false
}

// RefName returns the component name referenced by $ref, or "".
func (s *Schema) RefName() string {
	if name, ok := strings.CutPrefix(s.Ref, RefPrefix); ok {
		return name
	}
	return ""
}

// MarshalJSON flattens Extensions into the top-level object.
func (s *Schema) MarshalJSON() ([]byte, error) {
	type alias Schema
	if len(s.Extensions) == 0 {
		return json.Marshal((*alias)(s))
	}

	data, err := json.Marshal((*alias)(s))
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(s.Extensions)+8)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for k, v := range s.Extensions {
		if strings.HasPrefix(k, "x-") {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
