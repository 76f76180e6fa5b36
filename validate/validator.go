package validate

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/erraggy/dtoapi/constraint"
	"github.com/erraggy/dtoapi/dtoerrors"
	"github.com/erraggy/dtoapi/meta"
)

// DefaultMaxDepth bounds how deep Valid rules cascade.
const DefaultMaxDepth = 32

// Option configures a Validator.
type Option func(*Validator)

// WithMapper sets the rule mapper, e.g. one with extra factories or
// contributors. The default mapper uses the validator's provider.
func WithMapper(m *constraint.Mapper) Option {
	return func(v *Validator) {
		v.mapper = m
	}
}

// WithLogger sets the logger for skipped cascades.
func WithLogger(l meta.Logger) Option {
	return func(v *Validator) {
		v.logger = meta.OrNop(l)
	}
}

// WithMaxDepth bounds the cascade depth. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(v *Validator) {
		if depth > 0 {
			v.maxDepth = depth
		}
	}
}

// Validator checks payload values against the rules derived from their
// type metadata.
type Validator struct {
	provider meta.Provider
	mapper   *constraint.Mapper
	logger   meta.Logger
	maxDepth int

	profiles sync.Map // meta.TypeRef -> *Profile
	group    singleflight.Group
}

// New creates a validator reading metadata from provider.
func New(provider meta.Provider, opts ...Option) *Validator {
	v := &Validator{
		provider: provider,
		logger:   meta.NopLogger{},
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.mapper == nil {
		v.mapper = constraint.NewMapper(provider, constraint.WithLogger(v.logger))
	}
	return v
}

// Profile returns the rule set of ref. Profiles are cached per type.
func (v *Validator) Profile(ref meta.TypeRef) (*Profile, error) {
	if p, ok := v.profiles.Load(ref); ok {
		return p.(*Profile), nil
	}
	p, err, _ := v.group.Do(string(ref), func() (any, error) {
		if p, ok := v.profiles.Load(ref); ok {
			return p, nil
		}
		tm, err := v.provider.DescribeType(ref)
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
				Step:    dtoerrors.StepRules,
				Message: "enumeration type has no properties to validate",
			}
		}
		actual, _ := v.profiles.LoadOrStore(ref, buildProfile(tm, v.mapper))
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return p.(*Profile), nil
}

// Validate checks value against the profile of ref. value is a struct of
// the type behind ref (or a pointer to one) or a decoded JSON object. The
// error reports an unknown or underivable ref; violations are data.
func (v *Validator) Validate(ref meta.TypeRef, value any) (Violations, error) {
	p, err := v.Profile(ref)
	if err != nil {
		return nil, err
	}
	w := &walk{v: v, visited: make(map[visit]bool)}
	w.object(p, reflect.ValueOf(value), "", 0)
	return w.out, nil
}

// ValidateStruct validates a Go struct against the profile of its own type.
func (v *Validator) ValidateStruct(value any) (Violations, error) {
	return v.Validate(meta.RefOf(value), value)
}

type visit struct {
	typ reflect.Type
	ptr uintptr
}

// walk is the state of one Validate call.
type walk struct {
	v       *Validator
	visited map[visit]bool
	out     Violations
}

func (w *walk) add(path string, vs []constraint.Violation) {
	for _, viol := range vs {
		w.out = append(w.out, viol.Under(path))
	}
}

// object checks rv against p. Values that are neither the profile's Go
// type nor a string-keyed map are reported as a type mismatch at the root;
// below it the property's type rule already reported them.
func (w *walk) object(p *Profile, rv reflect.Value, path string, depth int) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return
		}
		if rv.Kind() == reflect.Pointer {
			key := visit{typ: rv.Type(), ptr: rv.Pointer()}
			if w.visited[key] {
				return
			}
			w.visited[key] = true
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return
	}

	switch {
	case rv.Kind() == reflect.Struct && p.GoType != nil && rv.Type() == p.GoType:
		for _, prop := range p.Properties {
			fv, err := rv.FieldByIndexErr(prop.Field.Index)
			if err != nil || !fv.CanInterface() {
				continue
			}
			if isNilValue(fv) && !prop.Required {
				continue
			}
			w.property(prop, fv.Interface(), path, depth)
		}
	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		if !w.firstVisit(rv) {
			return
		}
		for _, prop := range p.Properties {
			mv := rv.MapIndex(reflect.ValueOf(prop.Name).Convert(rv.Type().Key()))
			if !mv.IsValid() {
				if prop.Required {
					w.add(constraint.JoinPath(path, prop.Name), []constraint.Violation{{
						Code:    constraint.CodeRequired,
						Message: "must be present",
					}})
				}
				continue
			}
			w.property(prop, mv.Interface(), path, depth)
		}
	case depth == 0:
		w.add(path, []constraint.Violation{{
			Code:    constraint.CodeInvalidType,
			Message: "must be an object of type " + string(p.Ref),
			Params:  map[string]any{"type": string(p.Ref)},
		}})
	}
}

// firstVisit records a map and reports whether it was not yet seen.
func (w *walk) firstVisit(rv reflect.Value) bool {
	if rv.IsNil() {
		return true
	}
	key := visit{typ: rv.Type(), ptr: rv.Pointer()}
	if w.visited[key] {
		return false
	}
	w.visited[key] = true
	return true
}

func (w *walk) property(prop PropertyRules, value any, path string, depth int) {
	at := constraint.JoinPath(path, prop.Name)
	mistyped := false
	for _, rule := range prop.Rules {
		vs := rule.Check(value)
		w.add(at, vs)
		switch r := rule.(type) {
		case constraint.Type:
			mistyped = mistyped || len(vs) > 0
		case constraint.Valid:
			if !mistyped {
				w.cascade(r.Ref, value, at, depth)
			}
		case constraint.All:
			w.cascadeItems(r, value, at, depth)
		}
	}
}

func (w *walk) cascade(ref meta.TypeRef, value any, path string, depth int) {
	if value == nil || depth+1 > w.v.maxDepth {
		return
	}
	p, err := w.v.Profile(ref)
	if err != nil {
		w.v.logger.Debug("skipping cascade", "ref", ref, "path", path, "error", err)
		return
	}
	w.object(p, reflect.ValueOf(value), path, depth+1)
}

// cascadeItems follows Valid rules nested in an All rule into each item.
func (w *walk) cascadeItems(all constraint.All, value any, path string, depth int) {
	var ref meta.TypeRef
	for _, r := range all.Rules {
		if valid, ok := r.(constraint.Valid); ok {
			ref = valid.Ref
		}
	}
	if ref == "" {
		return
	}
	rv := reflect.ValueOf(value)
	for rv.IsValid() && rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return
	}
	for i := range rv.Len() {
		item := rv.Index(i)
		if !item.CanInterface() {
			continue
		}
		w.cascade(ref, item.Interface(), path+constraint.Index(i), depth)
	}
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}
