package schema

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/erraggy/dtoapi/dtoerrors"
	"github.com/erraggy/dtoapi/meta"
)

// Factory derives schema documents from type metadata. Documents are
// memoized per type reference for the factory's lifetime and must be
// treated as read-only by callers.
type Factory struct {
	provider meta.Provider
	namer    *Namer
	logger   meta.Logger
	metrics  *metrics

	docs  sync.Map // meta.TypeRef -> *Document
	group singleflight.Group
}

// NewFactory creates a factory reading metadata from provider.
func NewFactory(provider meta.Provider, opts ...Option) *Factory {
	cfg := newConfig(opts)
	return &Factory{
		provider: provider,
		namer:    cfg.namer,
		logger:   cfg.logger,
		metrics:  newMetrics(cfg.registerer),
	}
}

// Namer returns the namer used for item references.
func (f *Factory) Namer() *Namer { return f.namer }

// Build returns the schema document of ref. Concurrent first calls for the
// same ref share one derivation.
func (f *Factory) Build(ref meta.TypeRef) (*Document, error) {
	if doc, ok := f.docs.Load(ref); ok {
		f.metrics.cacheHits.Inc()
		return doc.(*Document), nil
	}
	v, err, _ := f.group.Do(string(ref), func() (any, error) {
		if doc, ok := f.docs.Load(ref); ok {
			return doc, nil
		}
		doc, err := f.derive(ref)
		if err != nil {
			return nil, err
		}
		f.metrics.derivations.Inc()
		actual, _ := f.docs.LoadOrStore(ref, doc)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// derive builds the document of ref without consulting the cache.
func (f *Factory) derive(ref meta.TypeRef) (*Document, error) {
	tm, err := f.provider.DescribeType(ref)
	if err != nil {
		return nil, &dtoerrors.DerivationError{
			Type:    string(ref),
			Step:    dtoerrors.StepDescribe,
			Message: "type metadata unavailable",
			Cause:   err,
		}
	}
	if tm.IsEnum() {
		return nil, &dtoerrors.DerivationError{
			Type:    string(ref),
			Step:    dtoerrors.StepShape,
			Message: "enumeration type cannot be used as a payload",
		}
	}
	if tm.GoType != nil && !meta.IsStructType(tm.GoType) {
		return nil, &dtoerrors.DerivationError{
			Type:    string(ref),
			Step:    dtoerrors.StepShape,
			Message: fmt.Sprintf("Go type %s is not a struct", tm.GoType),
		}
	}

	doc := &Document{Ref: ref, Title: tm.Name, Description: tm.Description}
	seenDeps := make(map[meta.TypeRef]bool)
	for _, p := range orderedProperties(tm.Properties) {
		name := p.Meta.WireName(p.Field.Name)
		doc.Properties = append(doc.Properties, NamedSchema{Name: name, Schema: f.fragment(p)})
		if p.Meta.Required && !slices.Contains(doc.Required, name) {
			doc.Required = append(doc.Required, name)
		}
		if dep := p.Meta.ItemsRef; dep != "" && !seenDeps[dep] {
			seenDeps[dep] = true
			doc.Dependencies = append(doc.Dependencies, dep)
		}
	}
	f.logger.Debug("derived schema", "ref", ref, "properties", len(doc.Properties))
	return doc, nil
}

// orderedProperties returns the declared properties sorted by order hint.
// Ties keep declaration order and unordered properties sort last.
func orderedProperties(props []meta.Property) []meta.Property {
	out := make([]meta.Property, 0, len(props))
	for _, p := range props {
		if p.Declared() {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b meta.Property) int {
		switch {
		case a.Meta.Order == nil && b.Meta.Order == nil:
			return 0
		case a.Meta.Order == nil:
			return 1
		case b.Meta.Order == nil:
			return -1
		}
		return cmp.Compare(*a.Meta.Order, *b.Meta.Order)
	})
	return out
}

// EffectiveType returns the type tag of a property: the declared type,
// else the one inferred from the field's Go type.
func EffectiveType(p meta.Property) string {
	if p.Meta != nil && p.Meta.Type != "" {
		return p.Meta.Type
	}
	return meta.InferTypeTag(p.Field.Type)
}

// fragment builds the schema fragment of one declared property.
func (f *Factory) fragment(p meta.Property) *Schema {
	m := p.Meta
	s := &Schema{
		Format:      m.Format,
		Description: m.Description,
		Deprecated:  m.Deprecated,
		ReadOnly:    m.ReadOnly,
		WriteOnly:   m.WriteOnly,
		Default:     m.Default,
		Example:     m.Example,
		Examples:    m.Examples,
	}
	typ := EffectiveType(p)

	switch {
	case len(m.Enum) > 0:
		s.Enum = slices.Clone(m.Enum)
	case m.EnumRef != "":
		if values := f.enumValues(m.EnumRef); values != nil {
			s.Enum = values
			if m.Type == "" && !isScalarTag(typ) {
				typ = meta.TypeString
			}
		}
	}

	switch typ {
	case meta.TypeString:
		s.MinLength = m.MinLength
		s.MaxLength = m.MaxLength
		s.Pattern = m.Pattern
	case meta.TypeInteger, meta.TypeNumber:
		if m.Minimum != nil {
			s.Minimum = m.Minimum
			s.ExclusiveMinimum = m.ExclusiveMinimum
		}
		if m.Maximum != nil {
			s.Maximum = m.Maximum
			s.ExclusiveMaximum = m.ExclusiveMaximum
		}
		s.MultipleOf = m.MultipleOf
	case meta.TypeArray:
		switch {
		case m.ItemsRef != "":
			s.Items = RefTo(f.namer.Name(m.ItemsRef))
		case m.ItemsType != "":
			s.Items = &Schema{Type: m.ItemsType}
		}
		s.MinItems = m.MinItems
		s.MaxItems = m.MaxItems
		s.UniqueItems = m.UniqueItems
	}

	switch {
	case m.Nullable && typ != "":
		s.Type = []string{"null", typ}
	case m.Nullable:
		s.Nullable = true
	case typ != "":
		s.Type = typ
	}

	for k, v := range m.Extensions {
		if strings.HasPrefix(k, meta.ExtensionPrefix) {
			if s.Extensions == nil {
				s.Extensions = make(map[string]any)
			}
			s.Extensions[k] = v
		}
	}
	return s
}

// enumValues returns the members of an enumeration type, or nil when the
// reference does not resolve to one.
func (f *Factory) enumValues(ref meta.TypeRef) []any {
	tm, err := f.provider.DescribeType(ref)
	if err != nil || !tm.IsEnum() {
		f.logger.Debug("skipping enumeration reference", "ref", ref, "error", err)
		return nil
	}
	return slices.Clone(tm.EnumValues)
}

func isScalarTag(tag string) bool {
	switch tag {
	case meta.TypeString, meta.TypeInteger, meta.TypeNumber, meta.TypeBoolean:
		return true
	}
	return false
}

// Documents returns a snapshot of every document built so far.
func (f *Factory) Documents() map[meta.TypeRef]*Document {
	out := make(map[meta.TypeRef]*Document)
	f.docs.Range(func(k, v any) bool {
		out[k.(meta.TypeRef)] = v.(*Document)
		return true
	})
	return out
}
