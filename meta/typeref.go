package meta

import (
	"reflect"
	"strings"
)

// TypeRef identifies a payload type. For Go types it is "<pkgpath>.<Name>";
// declared types may use any non-empty string. The empty TypeRef means "no type".
type TypeRef string

// OperationRef identifies an API operation.
type OperationRef string

// RefOf returns the TypeRef of v's dynamic type.
func RefOf(v any) TypeRef {
	return RefFor(reflect.TypeOf(v))
}

// RefFor returns the TypeRef of t. Pointers are dereferenced; unnamed
// types use their Go syntax.
func RefFor(t reflect.Type) TypeRef {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return TypeRef(t.String())
	}
	return TypeRef(t.PkgPath() + "." + t.Name())
}

// IsZero reports whether r is the empty reference.
func (r TypeRef) IsZero() bool { return r == "" }

// String implements fmt.Stringer.
func (r TypeRef) String() string { return string(r) }

// qualifier splits r into its package path and short name. Generic type
// arguments are kept with the short name.
func (r TypeRef) qualifier() (pkg, short string) {
	s := string(r)
	head := s
	if i := strings.IndexByte(s, '['); i >= 0 {
		head = s[:i]
	}
	i := strings.LastIndexByte(head, '.')
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}

// Short returns the type name without its package path.
func (r TypeRef) Short() string {
	_, short := r.qualifier()
	return short
}

// Package returns the last element of the package path, or "".
func (r TypeRef) Package() string {
	pkg, _ := r.qualifier()
	if i := strings.LastIndexByte(pkg, '/'); i >= 0 {
		return pkg[i+1:]
	}
	return pkg
}

// PackagePath returns the full package path, or "".
func (r TypeRef) PackagePath() string {
	pkg, _ := r.qualifier()
	return pkg
}
