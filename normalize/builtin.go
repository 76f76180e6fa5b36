package normalize

import (
	"cmp"
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"time"
)

var (
	timeType      = reflect.TypeFor[time.Time]()
	byteSliceType = reflect.TypeFor[[]byte]()
)

// hasRenderMethods reports whether a named value has enum or text methods
// that take precedence over its builtin kind.
func hasRenderMethods(v reflect.Value) bool {
	if _, ok := asInterface[EnumValuer](v); ok {
		return true
	}
	if _, ok := asInterface[EnumNamer](v); ok {
		return true
	}
	if _, ok := asInterface[encoding.TextMarshaler](v); ok {
		return true
	}
	if _, ok := asInterface[fmt.Stringer](v); ok {
		return true
	}
	_, ok := asInterface[error](v)
	return ok
}

// scalar converts a scalar value to its builtin kind. Named types with
// render methods do not match.
func scalar(v reflect.Value) (any, bool) {
	if !isScalarKind(v) {
		return nil, false
	}
	if v.Type().PkgPath() != "" && hasRenderMethods(v) {
		return nil, false
	}
	return builtinScalar(v)
}

func isScalarKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Slice:
		return v.Type().Elem().Kind() == reflect.Uint8 && v.Type().Elem().PkgPath() == ""
	}
	return false
}

// builtinScalar converts a scalar kind to its builtin Go type. Byte slices
// are base64 encoded and complex numbers formatted as strings.
func builtinScalar(v reflect.Value) (any, bool) {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), true
	case reflect.String:
		return v.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Complex64, reflect.Complex128:
		return strconv.FormatComplex(v.Complex(), 'g', -1, 128), true
	case reflect.Slice:
		if isScalarKind(v) {
			if v.IsNil() {
				return nil, true
			}
			return base64.StdEncoding.EncodeToString(v.Bytes()), true
		}
	}
	return nil, false
}

// scalarHandler is handler 1: nil and scalars.
func (w *walker) scalarHandler(v reflect.Value, _ Recurse) Result {
	if !v.IsValid() {
		return Matched(nil)
	}
	if s, ok := scalar(v); ok {
		return Matched(s)
	}
	return NoMatch()
}

// timeHandler is handler 2: time.Time.
func (w *walker) timeHandler(v reflect.Value, _ Recurse) Result {
	if v.Type() != timeType {
		return NoMatch()
	}
	v = exposed(v)
	if !v.CanInterface() {
		return NoMatch()
	}
	return Matched(v.Interface().(time.Time).Format(w.opts.DateFormat))
}

// enumHandler is handler 3: enumerations.
func (w *walker) enumHandler(v reflect.Value, recurse Recurse) Result {
	if e, ok := asInterface[EnumValuer](v); ok {
		if out, ok := w.safeCall(v, func() any { return e.EnumValue() }); ok {
			return Matched(recurse(reflect.ValueOf(out)))
		}
		return NoMatch()
	}
	if e, ok := asInterface[EnumNamer](v); ok {
		if out, ok := w.safeCall(v, func() any { return e.EnumName() }); ok {
			return Matched(out)
		}
	}
	return NoMatch()
}

// textHandler is handler 4: values that render as text.
func (w *walker) textHandler(v reflect.Value, _ Recurse) Result {
	if s, ok := w.text(v); ok {
		return Matched(s)
	}
	return NoMatch()
}

// text renders v through TextMarshaler, Stringer or error. Failures and
// panics report no match.
func (w *walker) text(v reflect.Value) (string, bool) {
	base, isNil := derefPointers(v)
	if isNil {
		return "", false
	}
	base = exposed(base)
	if tm, ok := asInterface[encoding.TextMarshaler](base); ok {
		out, ok := w.safeCall(base, func() any {
			b, err := tm.MarshalText()
			if err != nil {
				w.logger.Debug("text marshaling failed", "type", typeName(base), "error", err)
				return nil
			}
			return string(b)
		})
		if s, isString := out.(string); ok && isString {
			return s, true
		}
	}
	if s, ok := asInterface[fmt.Stringer](base); ok {
		if out, ok := w.safeCall(base, func() any { return s.String() }); ok {
			return out.(string), true
		}
	}
	if e, ok := asInterface[error](base); ok {
		if out, ok := w.safeCall(base, func() any { return e.Error() }); ok {
			return out.(string), true
		}
	}
	return "", false
}

// safeCall runs fn, reporting false if it panics.
func (w *walker) safeCall(v reflect.Value, fn func() any) (out any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Debug("render method panicked", "type", typeName(v), "panic", r)
			out, ok = nil, false
		}
	}()
	return fn(), true
}

// collectionHandler is handler 5: slices, arrays and maps.
func (w *walker) collectionHandler(v reflect.Value, recurse Recurse) Result {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return Matched(nil)
		}
		return Matched(w.sliceValue(v, recurse))
	case reflect.Map:
		return Matched(w.mapValue(v, recurse))
	}
	return NoMatch()
}

// sliceValue normalizes a slice or array. When nil elements are dropped the
// result is keyed by original index and shaped later.
func (w *walker) sliceValue(v reflect.Value, recurse Recurse) any {
	n := min(v.Len(), max(w.opts.MaxTraverse, 0))
	list := make([]any, 0, n)
	var keyed map[string]any
	for i := range n {
		item := recurse(exposed(v.Index(i)))
		if item == nil && !w.opts.IncludeNull {
			if keyed == nil {
				keyed = make(map[string]any, n)
				for j, prev := range list {
					keyed[strconv.Itoa(j)] = prev
				}
			}
			continue
		}
		if keyed != nil {
			keyed[strconv.Itoa(i)] = item
			continue
		}
		list = append(list, item)
	}
	if keyed != nil {
		return keyed
	}
	return list
}

// mapValue normalizes a map, visiting keys in sorted order so truncation
// by MaxTraverse is deterministic.
func (w *walker) mapValue(v reflect.Value, recurse Recurse) map[string]any {
	keys := v.MapKeys()
	slices.SortFunc(keys, compareKeys)
	if limit := max(w.opts.MaxTraverse, 0); len(keys) > limit {
		keys = keys[:limit]
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		item := recurse(v.MapIndex(k))
		if item == nil && !w.opts.IncludeNull {
			continue
		}
		out[w.formatKey(k)] = item
	}
	return out
}

// formatKey renders a map key as a string.
func (w *walker) formatKey(k reflect.Value) string {
	k = unwrapInterface(k)
	if !k.IsValid() {
		return "<nil>"
	}
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	}
	if s, ok := w.text(k); ok {
		return s
	}
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	return k.String()
}

// compareKeys orders map keys: numbers numerically, strings lexically,
// anything else by its formatted value.
func compareKeys(a, b reflect.Value) int {
	a, b = unwrapInterface(a), unwrapInterface(b)
	if a.IsValid() && b.IsValid() && a.Kind() == b.Kind() {
		switch a.Kind() {
		case reflect.String:
			return cmp.Compare(a.String(), b.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return cmp.Compare(a.Int(), b.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return cmp.Compare(a.Uint(), b.Uint())
		case reflect.Float32, reflect.Float64:
			return cmp.Compare(a.Float(), b.Float())
		case reflect.Bool:
			return cmp.Compare(strconv.FormatBool(a.Bool()), strconv.FormatBool(b.Bool()))
		}
	}
	return cmp.Compare(fmt.Sprint(keyInterface(a)), fmt.Sprint(keyInterface(b)))
}

func keyInterface(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

// sequenceHandler is handler 6: range-over-func iterators. Channels are
// excluded because draining them may block.
func (w *walker) sequenceHandler(v reflect.Value, recurse Recurse) Result {
	if v.Kind() != reflect.Func || v.IsNil() {
		return NoMatch()
	}
	limit := max(w.opts.MaxTraverse, 0)
	out := make([]any, 0)
	switch {
	case v.Type().CanSeq():
		if limit == 0 {
			return Matched(out)
		}
		for item := range v.Seq() {
			out = append(out, recurse(item))
			if len(out) >= limit {
				break
			}
		}
	case v.Type().CanSeq2():
		if limit == 0 {
			return Matched(out)
		}
		for _, item := range v.Seq2() {
			out = append(out, recurse(item))
			if len(out) >= limit {
				break
			}
		}
	default:
		return NoMatch()
	}
	return Matched(out)
}
