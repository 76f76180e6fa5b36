// Package validate executes the rules package constraint derives.
//
// A [Validator] builds a [Profile] per payload type (the rules of every
// declared property) and checks Go struct values or decoded JSON objects
// against it. Rules marked [constraint.Valid] cascade into nested objects
// and array items, so violations carry full property paths such as
// "roles[1].name".
//
// For decoded objects a missing required key is a "required" violation and
// a missing optional key is skipped. For structs a nil optional field is
// treated as absent.
package validate
