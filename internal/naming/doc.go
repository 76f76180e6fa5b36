// Package naming provides shared case conversion utilities for dtoapi packages.
//
// Functions include Words, ToPascalCase, ToCamelCase, ToSnakeCase, ToKebabCase
// and ToTitleCase. They are used for:
//   - Normalize package: property name transforms (snake_case, camelCase)
//   - Schema package: schema naming strategies and template functions
//
// As an internal package, these functions are not part of the public API
// and may change without notice.
package naming
