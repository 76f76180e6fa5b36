// Package constraint derives executable validation rules from property
// metadata.
//
// [Mapper.Map] turns one property's metadata into an ordered rule list:
// the type check first, then presence, then string, numeric and array
// bounds, the enumeration, ad hoc rules named in the "assert" extension and
// finally rules from registered contributors. Ad hoc rules resolve through
// named [Factory] functions registered ahead of time; entries naming an
// unknown factory are skipped.
//
// Rules check a single value and report [Violation] records with paths
// relative to that value. Executing a full type profile, including the
// cascade marked by [Valid], belongs to package validate.
package constraint
