// Package response resolves the response tables of API operations.
//
// A table maps status codes to fully defaulted response entries. Three
// declaration tiers contribute, in strict precedence order, and the first
// tier to claim a status keeps it:
//
//  1. method-level declarations of the operation, where a later entry for
//     a status replaces an earlier one,
//  2. the first declaration of each referenced payload type (a type without
//     any declares an implicit 200 application/json entry),
//  3. the global defaults.
//
// Tables are sorted by status and identical inputs always yield identical
// tables. [Select] picks the entry for a concrete result value at response
// time.
package response
