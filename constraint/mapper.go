package constraint

import (
	"maps"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/erraggy/dtoapi/meta"
)

// Contributor appends rules the mapper cannot express natively.
type Contributor interface {
	Contribute(field meta.FieldDescriptor, pm *meta.PropertyMeta) []Rule
}

// ContributorFunc adapts a function to Contributor.
type ContributorFunc func(field meta.FieldDescriptor, pm *meta.PropertyMeta) []Rule

// Contribute calls f.
func (f ContributorFunc) Contribute(field meta.FieldDescriptor, pm *meta.PropertyMeta) []Rule {
	return f(field, pm)
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithFactory registers an ad hoc rule factory under name.
func WithFactory(name string, f Factory) Option {
	return func(m *Mapper) {
		m.factories[name] = f
	}
}

// WithContributor appends a rule contributor. Contributors run in the order
// they were added.
func WithContributor(c Contributor) Option {
	return func(m *Mapper) {
		m.contributors = append(m.contributors, c)
	}
}

// WithLogger sets the logger for skipped ad hoc rules.
func WithLogger(l meta.Logger) Option {
	return func(m *Mapper) {
		m.logger = meta.OrNop(l)
	}
}

// Mapper derives validation rules from property metadata.
type Mapper struct {
	provider     meta.Provider
	logger       meta.Logger
	contributors []Contributor

	mu        sync.RWMutex
	factories map[string]Factory
}

// NewMapper creates a mapper. provider resolves enumeration references; it
// may be nil when no property uses one. The built-in factories are
// registered before opts apply, so options may replace them.
func NewMapper(provider meta.Provider, opts ...Option) *Mapper {
	m := &Mapper{
		provider:  provider,
		logger:    meta.NopLogger{},
		factories: maps.Clone(builtinFactories),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterFactory registers or replaces the ad hoc rule factory for name.
func (m *Mapper) RegisterFactory(name string, f Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[name] = f
}

// Factories returns the registered factory names, sorted.
func (m *Mapper) Factories() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.factories))
}

// Map returns the rules of one property in a fixed order: type, presence,
// string, numeric and array rules, enumeration, ad hoc rules, then
// contributed rules. A nil pm yields no rules.
func (m *Mapper) Map(field meta.FieldDescriptor, pm *meta.PropertyMeta) []Rule {
	if pm == nil {
		return nil
	}
	typ := effectiveType(field, pm)
	var rules []Rule

	rules = append(rules, typeRules(field, pm)...)

	switch {
	case pm.Required && !pm.Nullable:
		if typ == meta.TypeString {
			rules = append(rules, NotBlank{})
		} else {
			rules = append(rules, NotNull{})
		}
	case pm.Required && pm.Nullable:
		// presence is checked against the payload, not the value
	case !pm.Nullable:
		rules = append(rules, NotNull{})
	}

	if typ == meta.TypeString {
		if pm.MinLength != nil || pm.MaxLength != nil {
			rules = append(rules, Length{Min: pm.MinLength, Max: pm.MaxLength})
		}
		if pm.Pattern != "" {
			p, err := NewPattern(pm.Pattern)
			if err != nil {
				m.logger.Warn("skipping invalid pattern", "field", field.Name, "pattern", pm.Pattern, "error", err)
			} else {
				rules = append(rules, p)
			}
		}
	}
	if r := formatRule(pm.Format, typ); r != nil {
		rules = append(rules, r)
	}

	if typ == meta.TypeInteger || typ == meta.TypeNumber {
		if pm.Minimum != nil {
			op := KindGreaterOrEq
			if pm.ExclusiveMinimum {
				op = KindGreaterThan
			}
			rules = append(rules, Compare{Op: op, Limit: *pm.Minimum})
		}
		if pm.Maximum != nil {
			op := KindLessOrEq
			if pm.ExclusiveMaximum {
				op = KindLessThan
			}
			rules = append(rules, Compare{Op: op, Limit: *pm.Maximum})
		}
		if pm.MultipleOf != nil {
			rules = append(rules, MultipleOf{Factor: *pm.MultipleOf})
		}
	}

	if typ == meta.TypeArray {
		if pm.MinItems != nil || pm.MaxItems != nil {
			rules = append(rules, Count{Min: pm.MinItems, Max: pm.MaxItems})
		}
		if pm.UniqueItems {
			rules = append(rules, Unique{})
		}
		var items []Rule
		if isPrimitive(pm.ItemsType) {
			items = append(items, Type{Tag: pm.ItemsType})
		}
		if pm.ItemsRef != "" {
			items = append(items, Type{Tag: meta.TypeObject, Ref: pm.ItemsRef}, Valid{Ref: pm.ItemsRef})
		}
		if len(items) > 0 {
			rules = append(rules, All{Rules: items})
		}
	}

	if r := m.enumRule(pm); r != nil {
		rules = append(rules, r)
	}

	rules = append(rules, m.adHocRules(field, pm)...)

	for _, c := range m.contributors {
		rules = append(rules, c.Contribute(field, pm)...)
	}
	return rules
}

// effectiveType is the declared type tag, else the one inferred from the
// field's Go type.
func effectiveType(field meta.FieldDescriptor, pm *meta.PropertyMeta) string {
	if pm.Type != "" {
		return pm.Type
	}
	if field.Type == nil || derefType(field.Type).Kind() == reflect.Interface {
		return ""
	}
	return meta.InferTypeTag(field.Type)
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func isPrimitive(tag string) bool {
	switch tag {
	case meta.TypeString, meta.TypeInteger, meta.TypeNumber, meta.TypeBoolean, meta.TypeArray, meta.TypeObject:
		return true
	}
	return false
}

// typeRules derives the type check. Struct-typed fields also cascade.
func typeRules(field meta.FieldDescriptor, pm *meta.PropertyMeta) []Rule {
	structRef := meta.TypeRef("")
	if meta.IsStructType(field.Type) {
		structRef = meta.RefFor(derefType(field.Type))
	}
	if pm.Type != "" {
		if !isPrimitive(pm.Type) {
			return nil
		}
		if pm.Type == meta.TypeObject && structRef != "" {
			return []Rule{Type{Tag: meta.TypeObject, Ref: structRef}, Valid{Ref: structRef}}
		}
		return []Rule{Type{Tag: pm.Type}}
	}
	if field.Type == nil {
		return nil
	}
	t := derefType(field.Type)
	switch {
	case t.Kind() == reflect.Interface:
		return nil
	case structRef != "":
		return []Rule{Type{Tag: meta.TypeObject, Ref: structRef}, Valid{Ref: structRef}}
	case t == reflect.TypeFor[time.Time]():
		return []Rule{Type{Tag: meta.TypeString}}
	}
	return []Rule{Type{Tag: meta.InferTypeTag(t)}}
}

// formatRule maps a format to its validator. int64 and float only add a
// type check.
func formatRule(format, typ string) Rule {
	switch {
	case format == "":
		return nil
	case format == meta.FormatInt64:
		return Type{Tag: meta.TypeInteger}
	case format == meta.FormatFloat:
		return Type{Tag: meta.TypeNumber}
	case typ == meta.TypeString && SupportsFormat(format):
		return Format{Name: format}
	}
	return nil
}

func (m *Mapper) enumRule(pm *meta.PropertyMeta) Rule {
	if len(pm.Enum) > 0 {
		return Choice{Choices: slices.Clone(pm.Enum)}
	}
	if pm.EnumRef == "" || m.provider == nil {
		return nil
	}
	tm, err := m.provider.DescribeType(pm.EnumRef)
	if err != nil || !tm.IsEnum() {
		m.logger.Debug("skipping enumeration reference", "ref", pm.EnumRef, "error", err)
		return nil
	}
	return Choice{Choices: slices.Clone(tm.EnumValues)}
}

// adHocRules instantiates the entries of the assert extension. An entry is
// a factory name or a [name, args] pair. Unknown names, malformed entries
// and factory errors are skipped.
func (m *Mapper) adHocRules(field meta.FieldDescriptor, pm *meta.PropertyMeta) []Rule {
	raw, ok := pm.Extensions[meta.AssertExtension]
	if !ok {
		return nil
	}
	var entries []any
	switch v := raw.(type) {
	case []any:
		entries = v
	case []string:
		for _, s := range v {
			entries = append(entries, s)
		}
	case string:
		entries = []any{v}
	default:
		m.logger.Warn("skipping malformed assert extension", "field", field.Name)
		return nil
	}

	var rules []Rule
	for _, entry := range entries {
		name, args, ok := parseAssert(entry)
		if !ok {
			m.logger.Warn("skipping malformed assert entry", "field", field.Name, "entry", entry)
			continue
		}
		m.mu.RLock()
		f, ok := m.factories[name]
		m.mu.RUnlock()
		if !ok {
			m.logger.Warn("skipping unknown assert rule", "field", field.Name, "rule", name)
			continue
		}
		r, err := f(args)
		if err != nil || r == nil {
			m.logger.Warn("skipping assert rule", "field", field.Name, "rule", name, "error", err)
			continue
		}
		rules = append(rules, r)
	}
	return rules
}

func parseAssert(entry any) (string, map[string]any, bool) {
	switch v := entry.(type) {
	case string:
		return v, nil, v != ""
	case []any:
		if len(v) == 0 || len(v) > 2 {
			return "", nil, false
		}
		name, ok := v[0].(string)
		if !ok || name == "" {
			return "", nil, false
		}
		if len(v) == 1 || v[1] == nil {
			return name, nil, true
		}
		args, ok := stringMap(v[1])
		return name, args, ok
	}
	return "", nil, false
}

// stringMap accepts the map shapes YAML and JSON decoders produce.
func stringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	}
	return nil, false
}
