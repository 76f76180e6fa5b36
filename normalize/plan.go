package normalize

import (
	"encoding"
	"fmt"
	"reflect"
)

var (
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	stringerType      = reflect.TypeFor[fmt.Stringer]()
	errorType         = reflect.TypeFor[error]()
)

// fieldPlan is one struct field visited by the struct fallback.
type fieldPlan struct {
	name  string
	index []int
}

// plan returns the cached field plan of struct type t.
func (n *Normalizer) plan(t reflect.Type) []fieldPlan {
	if p, ok := n.plans.Get(t); ok {
		return p
	}
	p := buildPlan(t)
	n.plans.Add(t, p)
	return p
}

// buildPlan lists the fields of t in declaration order. Embedded structs
// are flattened unless they render as text; on a name clash the first
// field wins.
func buildPlan(t reflect.Type) []fieldPlan {
	var out []fieldPlan
	seen := make(map[string]bool)
	var walk func(t reflect.Type, prefix []int, depth int)
	walk = func(t reflect.Type, prefix []int, depth int) {
		for i := range t.NumField() {
			f := t.Field(i)
			if f.Name == "_" {
				continue
			}
			index := append(append([]int(nil), prefix...), i)
			if f.Anonymous && depth < 8 {
				ft := f.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct && !rendersAsText(ft) {
					walk(ft, index, depth+1)
					continue
				}
			}
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			out = append(out, fieldPlan{name: f.Name, index: index})
		}
	}
	walk(t, nil, 0)
	return out
}

// rendersAsText reports whether values of t are handled before the struct fallback.
func rendersAsText(t reflect.Type) bool {
	if t == timeType {
		return true
	}
	pt := reflect.PointerTo(t)
	for _, iface := range []reflect.Type{textMarshalerType, stringerType, errorType} {
		if t.Implements(iface) || pt.Implements(iface) {
			return true
		}
	}
	return false
}

// structValue is the struct fallback: every field, exported or not, filtered
// and renamed per the options.
func (w *walker) structValue(v reflect.Value, recurse Recurse) map[string]any {
	v = addressable(v)
	fields := w.n.plan(v.Type())
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		fv, err := v.FieldByIndexErr(f.index)
		if err != nil {
			// nil embedded pointer
			continue
		}
		fv = exposed(fv)
		if w.opts.PropertyFilter != nil && !w.opts.PropertyFilter(f.name, fv, v) {
			continue
		}
		name := f.name
		if w.opts.NameTransform != nil {
			name = w.opts.NameTransform(name)
		}
		item := recurse(fv)
		if item == nil && !w.opts.IncludeNull {
			continue
		}
		out[name] = item
	}
	return out
}
