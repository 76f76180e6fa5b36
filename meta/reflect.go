package meta

import (
	"reflect"
	"sync"

	"github.com/erraggy/dtoapi/dtoerrors"
)

// ReflectProvider discovers metadata from Go types through dto struct tags.
//
// A field participates in the contract only when it carries a dto tag:
//
//	type User struct {
//	    _     struct{} `dto:"description=A registered user"`
//	    ID    int64    `json:"id" dto:"required,minimum=1"`
//	    Name  *string  `json:"name" dto:"nullable,maxLength=50"`
//	    Roles []Role   `json:"roles" dto:"uniqueItems"`
//	    cache string   // undeclared, invisible to the contract
//	}
//
// The blank field's tag carries type-level name and description. Wire names
// fall back to the json tag name, then the Go field name. Slices of structs
// get ItemsRef inferred, and fields whose type implements Enum get EnumRef
// inferred; referenced types are registered transitively.
//
// ReflectProvider is safe for concurrent use.
type ReflectProvider struct {
	mu     sync.RWMutex
	types  map[TypeRef]*TypeMeta
	ops    map[OperationRef]*OperationMeta
	logger Logger
}

// ReflectOption configures a ReflectProvider.
type ReflectOption func(*ReflectProvider)

// WithReflectLogger sets the provider's logger.
func WithReflectLogger(l Logger) ReflectOption {
	return func(p *ReflectProvider) { p.logger = OrNop(l) }
}

// NewReflectProvider creates an empty ReflectProvider.
func NewReflectProvider(opts ...ReflectOption) *ReflectProvider {
	p := &ReflectProvider{
		types:  make(map[TypeRef]*TypeMeta),
		ops:    make(map[OperationRef]*OperationMeta),
		logger: NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RegisterType registers the type of v (a value, a pointer, or a
// reflect.Type) with optional type-level responses. Registering a type again
// replaces its responses only when some are given.
func (p *ReflectProvider) RegisterType(v any, responses ...ResponseMeta) (TypeRef, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	if t == nil {
		return "", &dtoerrors.ConfigError{Option: "type", Message: "cannot register a nil type"}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ref := RefFor(t)
	if err := p.registerLocked(t, map[reflect.Type]bool{}); err != nil {
		return "", err
	}
	if len(responses) > 0 {
		// Published TypeMeta values are never mutated; swap in a copy.
		tm := *p.types[ref]
		tm.Responses = make([]ResponseMeta, len(responses))
		for i, r := range responses {
			if r.Payload == "" {
				r.Payload = ref
			}
			tm.Responses[i] = r
		}
		p.types[ref] = &tm
	}
	return ref, nil
}

// RegisterOperation registers an operation. Its request and response types
// must be registered separately.
func (p *ReflectProvider) RegisterOperation(op OperationMeta) error {
	if op.Ref == "" {
		return &dtoerrors.ConfigError{Option: "operation", Message: "operation ref is empty"}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := op
	p.ops[op.Ref] = &cp
	return nil
}

// DescribeType implements Provider.
func (p *ReflectProvider) DescribeType(ref TypeRef) (*TypeMeta, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tm, ok := p.types[ref]
	if !ok {
		return nil, dtoerrors.NewUnknownTypeError(string(ref))
	}
	return tm, nil
}

// DescribeOperation implements Provider.
func (p *ReflectProvider) DescribeOperation(ref OperationRef) (*OperationMeta, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	op, ok := p.ops[ref]
	if !ok {
		return nil, dtoerrors.NewUnknownOperationError(string(ref))
	}
	return op, nil
}

// Types returns the registered type references.
func (p *ReflectProvider) Types() []TypeRef {
	p.mu.RLock()
	defer p.mu.RUnlock()
	refs := make([]TypeRef, 0, len(p.types))
	for ref := range p.types {
		refs = append(refs, ref)
	}
	return refs
}

// registerLocked describes t and every struct or enum type it references.
// p.mu must be held for writing.
func (p *ReflectProvider) registerLocked(t reflect.Type, seen map[reflect.Type]bool) error {
	ref := RefFor(t)
	if _, ok := p.types[ref]; ok || seen[t] {
		return nil
	}
	seen[t] = true

	if implementsEnum(t) {
		p.types[ref] = &TypeMeta{Ref: ref, GoType: t, EnumValues: enumValuesOf(t)}
		p.logger.Debug("registered enum type", "ref", ref)
		return nil
	}

	tm := &TypeMeta{Ref: ref, GoType: t}
	if t.Kind() != reflect.Struct {
		// Recorded so derivation can report the shape error with the offending type.
		p.types[ref] = tm
		return nil
	}

	var nested []reflect.Type
	wireNames := make(map[string]string)
	err := walkFields(t, nil, func(field reflect.StructField, index []int) error {
		if field.Name == "_" {
			applyTypeTag(tm, field)
			return nil
		}
		pm, declared := propertyFromField(field)
		prop := Property{
			Field: FieldDescriptor{Name: field.Name, Index: index, Type: field.Type},
		}
		if declared {
			wire := pm.WireName(field.Name)
			if prev, dup := wireNames[wire]; dup {
				return &dtoerrors.ConfigError{
					Option:  string(ref) + "." + field.Name,
					Value:   wire,
					Message: "wire name already used by field " + prev,
				}
			}
			wireNames[wire] = field.Name
			nested = append(nested, inferReferences(pm, field.Type)...)
			prop.Meta = pm
		}
		tm.Properties = append(tm.Properties, prop)
		return nil
	})
	if err != nil {
		delete(seen, t)
		return err
	}

	p.types[ref] = tm
	p.logger.Debug("registered type", "ref", ref, "properties", len(tm.Properties))

	for _, nt := range nested {
		if err := p.registerLocked(nt, seen); err != nil {
			return err
		}
	}
	return nil
}

// walkFields visits the fields of t in declaration order. Untagged embedded
// structs are flattened the way encoding/json promotes their fields.
func walkFields(t reflect.Type, prefix []int, visit func(reflect.StructField, []int) error) error {
	for i := range t.NumField() {
		field := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		if field.Anonymous {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if _, tagged := field.Tag.Lookup(TagName); !tagged && ft.Kind() == reflect.Struct {
				if err := walkFields(ft, index, visit); err != nil {
					return err
				}
				continue
			}
		}
		if err := visit(field, index); err != nil {
			return err
		}
	}
	return nil
}

// applyTypeTag reads type-level documentation from a blank field's dto tag.
func applyTypeTag(tm *TypeMeta, field reflect.StructField) {
	for _, e := range parseDTOTag(field.Tag.Get(TagName)) {
		switch e.key {
		case "name":
			tm.Name = e.value
		case "description":
			tm.Description = e.value
		}
	}
}

// inferReferences fills ItemsRef and EnumRef from the field type and returns
// the struct and enum types the field references.
func inferReferences(pm *PropertyMeta, ft reflect.Type) []reflect.Type {
	for ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	var out []reflect.Type
	switch {
	case implementsEnum(ft):
		if pm.EnumRef == "" && len(pm.Enum) == 0 {
			pm.EnumRef = RefFor(ft)
		}
		out = append(out, ft)
	case IsStructType(ft):
		out = append(out, ft)
	case (ft.Kind() == reflect.Slice || ft.Kind() == reflect.Array) && ft != byteSliceType:
		elem := ft.Elem()
		for elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		switch {
		case IsStructType(elem):
			if pm.ItemsRef == "" && pm.ItemsType == "" {
				pm.ItemsRef = RefFor(elem)
			}
			out = append(out, elem)
		case implementsEnum(elem):
			out = append(out, elem)
			if pm.ItemsType == "" {
				pm.ItemsType = InferTypeTag(elem)
			}
		case pm.ItemsType == "" && pm.ItemsRef == "":
			pm.ItemsType = InferTypeTag(elem)
		}
	}
	return out
}

// enumValuesOf lists the values of an Enum type. The result is never nil.
func enumValuesOf(t reflect.Type) []any {
	var e Enum
	if t.Implements(enumType) {
		e, _ = reflect.Zero(t).Interface().(Enum)
	} else {
		e, _ = reflect.New(t).Interface().(Enum)
	}
	if e == nil {
		return []any{}
	}
	values := e.EnumValues()
	if values == nil {
		return []any{}
	}
	return values
}

var _ Provider = (*ReflectProvider)(nil)
