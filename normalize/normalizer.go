package normalize

import (
	"reflect"
	"slices"
	"sync"
	"unsafe"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/erraggy/dtoapi/meta"
)

// Marker keys emitted in place of values that are not expanded.
const (
	CircularRefKey = "__circular_ref"
	ObjectKey      = "__object"
)

// planCacheSize bounds the number of struct types whose field plans are kept.
const planCacheSize = 1024

// Normalizer flattens values into plain trees. It is safe for concurrent
// use; every Normalize call has its own visited set.
type Normalizer struct {
	defaults Options

	mu       sync.RWMutex
	handlers []Handler

	plans *lru.Cache[reflect.Type, []fieldPlan]
}

// New creates a Normalizer with the given default options.
func New(opts ...Option) *Normalizer {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	// Only fails for a non-positive size.
	plans, _ := lru.New[reflect.Type, []fieldPlan](planCacheSize)
	return &Normalizer{defaults: o, plans: plans}
}

// Register appends a custom handler. Registered handlers run after the
// built-in handlers and before the struct fallback, in registration order.
func (n *Normalizer) Register(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(slices.Clip(n.handlers), h)
}

// Options returns the normalizer's default options.
func (n *Normalizer) Options() Options {
	return n.defaults
}

// Normalize flattens value. opts override the normalizer's defaults for
// this call only.
func (n *Normalizer) Normalize(value any, opts ...Option) any {
	o := n.defaults
	o.Handlers = slices.Clone(o.Handlers)
	for _, opt := range opts {
		opt(&o)
	}

	n.mu.RLock()
	handlers := append(slices.Clone(n.handlers), o.Handlers...)
	n.mu.RUnlock()

	w := &walker{
		n:        n,
		opts:     o,
		handlers: handlers,
		logger:   meta.OrNop(o.Logger),
		visited:  make(map[visitKey]int),
	}
	tree := w.walk(reflect.ValueOf(value), 0)
	if o.ShapeLists {
		tree = shape(tree)
	}
	return tree
}

// visitKey identifies a pointer, map or slice for the duration of one call.
// Slices sharing a backing array are told apart by length.
type visitKey struct {
	typ reflect.Type
	ptr unsafe.Pointer
	len int
}

// walker carries the state of one Normalize call.
type walker struct {
	n        *Normalizer
	opts     Options
	handlers []Handler
	logger   meta.Logger
	visited  map[visitKey]int
	tokens   int
}

// walk normalizes v at the given depth.
func (w *walker) walk(v reflect.Value, depth int) any {
	v = unwrapInterface(v)
	if !v.IsValid() {
		return nil
	}

	// Scalars and pointers to scalars are returned even past the depth limit.
	if base, isNil := derefPointers(v); isNil {
		return nil
	} else if s, ok := scalar(base); ok {
		return s
	}

	if w.beyondLimit(depth) {
		return w.degrade(v)
	}

	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Pointer && v.Type().Elem().Size() > 0 {
			if token, seen := w.visit(v); seen {
				return circularRef(token)
			}
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Map {
		if v.IsNil() {
			return nil
		}
		if token, seen := w.visit(v); seen {
			return circularRef(token)
		}
	}
	if v.Kind() == reflect.Slice && v.Len() > 0 && v.Type().Elem().Size() > 0 && !hasRenderMethods(v) {
		if token, seen := w.visit(v); seen {
			return circularRef(token)
		}
	}

	return w.dispatch(v, depth)
}

func (w *walker) beyondLimit(depth int) bool {
	return (!w.opts.Deep && depth > 0) || depth >= w.opts.MaxDepth
}

// visit records v and reports whether it had been seen before.
func (w *walker) visit(v reflect.Value) (token int, seen bool) {
	key := visitKey{typ: v.Type(), ptr: v.UnsafePointer()}
	if v.Kind() == reflect.Slice {
		key.len = v.Len()
	}
	if token, ok := w.visited[key]; ok {
		return token, true
	}
	w.tokens++
	w.visited[key] = w.tokens
	return w.tokens, false
}

func circularRef(token int) map[string]any {
	return map[string]any{CircularRefKey: token}
}

// degrade renders a value past the depth limit without expanding it.
func (w *walker) degrade(v reflect.Value) any {
	if s, ok := w.text(v); ok {
		return s
	}
	base, _ := derefPointers(v)
	if s, ok := builtinScalar(base); ok {
		return s
	}
	return map[string]any{ObjectKey: typeName(v)}
}

// dispatch runs the handler chain on a non-pointer value.
func (w *walker) dispatch(v reflect.Value, depth int) any {
	recurse := func(x reflect.Value) any { return w.walk(x, depth+1) }

	for _, h := range w.builtins() {
		if out, ok := h(v, recurse).Value(); ok {
			return out
		}
	}
	if v.CanInterface() {
		for _, h := range w.handlers {
			if out, ok := h.Handle(v, recurse).Value(); ok {
				return out
			}
		}
	}
	if v.Kind() == reflect.Struct {
		return w.structValue(v, recurse)
	}

	// Nothing matched.
	if s, ok := builtinScalar(v); ok {
		return s
	}
	if v.CanInterface() {
		return v.Interface()
	}
	return nil
}

func (w *walker) builtins() []HandlerFunc {
	return []HandlerFunc{
		w.scalarHandler,
		w.timeHandler,
		w.enumHandler,
		w.textHandler,
		w.collectionHandler,
		w.sequenceHandler,
	}
}

// unwrapInterface returns the dynamic value held by an interface value.
func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// derefPointers follows pointers and interfaces without recording visits.
func derefPointers(v reflect.Value) (base reflect.Value, isNil bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v, true
		}
		v = v.Elem()
	}
	return v, false
}

// exposed returns a copy of v that can be interfaced even when v was read
// from an unexported struct field.
func exposed(v reflect.Value) reflect.Value {
	if v.CanInterface() || !v.CanAddr() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

// addressable returns an addressable copy of v so pointer-receiver methods
// and unexported fields are reachable.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() || !v.CanInterface() {
		return v
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}

// asInterface reports whether v, or its address, implements T.
func asInterface[T any](v reflect.Value) (T, bool) {
	var zero T
	if !v.IsValid() {
		return zero, false
	}
	if v.CanInterface() {
		if t, ok := v.Interface().(T); ok {
			return t, true
		}
	}
	if v.CanAddr() {
		if p := v.Addr(); p.CanInterface() {
			if t, ok := p.Interface().(T); ok {
				return t, true
			}
		}
	}
	return zero, false
}

func typeName(v reflect.Value) string {
	t := v.Type()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
