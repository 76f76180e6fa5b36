package normalize

import "reflect"

// Result is the outcome of a Handler: either a matched value or no match.
type Result struct {
	value   any
	matched bool
}

// Matched returns a Result carrying v.
func Matched(v any) Result { return Result{value: v, matched: true} }

// NoMatch returns a Result deferring to the next handler.
func NoMatch() Result { return Result{} }

// Value returns the matched value and whether the handler matched.
func (r Result) Value() (any, bool) { return r.value, r.matched }

// Recurse normalizes a nested value one level deeper, applying the depth
// and cycle guards.
type Recurse func(v reflect.Value) any

// Handler converts one value. It returns NoMatch to defer to the next
// handler in the chain.
type Handler interface {
	Handle(v reflect.Value, recurse Recurse) Result
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(v reflect.Value, recurse Recurse) Result

// Handle implements Handler.
func (f HandlerFunc) Handle(v reflect.Value, recurse Recurse) Result {
	return f(v, recurse)
}

// TypeHandler returns a Handler matching values of type T (or *T) with fn.
func TypeHandler[T any](fn func(T, Recurse) any) Handler {
	target := reflect.TypeFor[T]()
	return HandlerFunc(func(v reflect.Value, recurse Recurse) Result {
		if v.Type() != target || !v.CanInterface() {
			return NoMatch()
		}
		t, ok := v.Interface().(T)
		if !ok {
			return NoMatch()
		}
		return Matched(fn(t, recurse))
	})
}

// EnumValuer is implemented by enumerations that carry an underlying value.
type EnumValuer interface {
	EnumValue() any
}

// EnumNamer is implemented by enumerations rendered by symbolic name.
type EnumNamer interface {
	EnumName() string
}
