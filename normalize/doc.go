// Package normalize flattens arbitrary Go values into plain transport trees:
// nil, bool, numbers, strings, []any and map[string]any.
//
// A value is dispatched through an ordered handler chain where the first
// handler that matches wins:
//
//  1. nil and scalars (named scalar types become their builtin kind)
//  2. time.Time, formatted with Options.DateFormat
//  3. enumerations implementing EnumValuer or EnumNamer
//  4. values that render as text (encoding.TextMarshaler, fmt.Stringer, error)
//  5. slices, arrays and maps
//  6. range-over-func iterators
//  7. handlers registered with Register or WithHandler
//  8. structs, including unexported fields
//
// Every recursive step is guarded. Past Options.MaxDepth (or below the root
// when Options.Deep is false) values degrade to their text form or to a
// {"__object": "<type>"} placeholder. Pointers and maps are tracked in a
// visited set scoped to one Normalize call; revisiting one yields
// {"__circular_ref": <token>}, where token is the visitation number of the
// instance (1 for the first object visited).
//
// When Options.ShapeLists is set, maps keyed by the contiguous integers
// 0..n-1 become lists in a final pass.
//
// # Example
//
//	n := normalize.New(normalize.WithNameTransform(normalize.SnakeCase))
//	tree := n.Normalize(order)
//	body, err := normalize.Encode(tree)
package normalize
