package constraint

import (
	"reflect"
	"strconv"
	"time"
)

// Unique rejects collections holding the same item twice. Scalars compare
// by value (numbers regardless of their Go type), comparable structs by
// value, and pointers, maps and slices by identity. Only the first
// duplicate is reported, at its item path.
type Unique struct{}

// Kind implements Rule.
func (Unique) Kind() string { return KindUnique }

type identity struct {
	typ reflect.Type
	ptr uintptr
}

type structKey struct {
	typ reflect.Type
	val any
}

// Check implements Rule.
func (Unique) Check(value any) []Violation {
	v := indirect(value)
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return nil
	}
	seen := make(map[any]int, v.Len())
	for i := range v.Len() {
		key, ok := itemKey(v.Index(i))
		if !ok {
			continue
		}
		if first, dup := seen[key]; dup {
			return []Violation{{
				Path:    Index(i),
				Code:    CodeDuplicate,
				Message: "must not contain duplicate items",
				Params:  map[string]any{"first": first},
			}}
		}
		seen[key] = i
	}
	return nil
}

func itemKey(v reflect.Value) (any, bool) {
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "null", true
		}
		v = v.Elem()
	}
	if k, ok := scalarKey(v); ok {
		return k, true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return "null", true
		}
		return identity{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Struct, reflect.Array:
		if v.Comparable() && v.CanInterface() {
			return structKey{typ: v.Type(), val: v.Interface()}, true
		}
	}
	return nil, false
}

// scalarKey returns a comparison key for strings, booleans, numbers and
// times. Numbers share one key space so 1, int64(1) and 1.0 are equal.
func scalarKey(v reflect.Value) (string, bool) {
	if !v.IsValid() {
		return "", false
	}
	if v.Type() == reflect.TypeFor[time.Time]() && v.CanInterface() {
		return "t:" + v.Interface().(time.Time).UTC().Format(time.RFC3339Nano), true
	}
	switch v.Kind() {
	case reflect.String:
		return "s:" + v.String(), true
	case reflect.Bool:
		return "b:" + strconv.FormatBool(v.Bool()), true
	}
	if f, ok := numeric(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64), true
	}
	return "", false
}
