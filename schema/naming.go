package schema

import (
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/erraggy/dtoapi/dtoerrors"
	"github.com/erraggy/dtoapi/internal/naming"
	"github.com/erraggy/dtoapi/meta"
)

// NamingStrategy selects how component schema names are derived from type
// references.
type NamingStrategy int

const (
	// NamingTypeOnly uses the short type name.
	// Example: github.com/org/models.User -> User
	NamingTypeOnly NamingStrategy = iota

	// NamingPackageQualified uses "package.TypeName".
	// Example: github.com/org/models.User -> models.User
	NamingPackageQualified

	// NamingPascalCase uses "PackageTypeName".
	// Example: github.com/org/models.User -> ModelsUser
	NamingPascalCase

	// NamingFullPath uses the sanitized full package path.
	// Example: github.com/org/models.User -> github.com_org_models_User
	NamingFullPath
)

var strategyNames = map[string]NamingStrategy{
	"type-only": NamingTypeOnly,
	"package":   NamingPackageQualified,
	"pascal":    NamingPascalCase,
	"full-path": NamingFullPath,
}

// ParseNamingStrategy parses a strategy name: type-only, package, pascal or
// full-path.
func ParseNamingStrategy(s string) (NamingStrategy, error) {
	if s == "" {
		return NamingTypeOnly, nil
	}
	if st, ok := strategyNames[strings.ToLower(s)]; ok {
		return st, nil
	}
	return NamingTypeOnly, &dtoerrors.ConfigError{
		Option:  "schema.naming",
		Value:   s,
		Message: "expected one of type-only, package, pascal, full-path",
	}
}

// String returns the strategy's configuration name.
func (s NamingStrategy) String() string {
	for name, st := range strategyNames {
		if st == s {
			return name
		}
	}
	return fmt.Sprintf("NamingStrategy(%d)", int(s))
}

// NameContext is the data passed to naming templates.
type NameContext struct {
	// Ref is the full type reference.
	Ref string
	// Type is the short type name, generic arguments included.
	Type string
	// TypeSanitized is Type with generic brackets replaced.
	TypeSanitized string
	// Package is the last package path element.
	Package string
	// PackagePath is the full package path.
	PackagePath string
	// PackagePathSanitized is PackagePath with slashes replaced.
	PackagePathSanitized string
}

// Namer turns type references into component schema names.
type Namer struct {
	strategy NamingStrategy
	template *template.Template
}

// NewNamer creates a namer using strategy.
func NewNamer(strategy NamingStrategy) *Namer {
	return &Namer{strategy: strategy}
}

// NewTemplateNamer creates a namer from a text/template executed against a
// NameContext. Available functions: pascal, camel, snake, kebab, upper,
// lower, title, sanitize, replace, trimPrefix, trimSuffix.
func NewTemplateNamer(tmpl string) (*Namer, error) {
	t, err := template.New("schemaName").Funcs(templateFuncs()).Parse(tmpl)
	if err != nil {
		return nil, &dtoerrors.ConfigError{Option: "schema name template", Value: tmpl, Cause: err}
	}
	var buf strings.Builder
	if err := t.Execute(&buf, newNameContext("github.com/test/testpkg.TestType")); err != nil {
		return nil, &dtoerrors.ConfigError{Option: "schema name template", Value: tmpl, Cause: err}
	}
	return &Namer{template: t}, nil
}

// Name returns the schema name of ref.
func (n *Namer) Name(ref meta.TypeRef) string {
	ctx := newNameContext(string(ref))
	if n.template != nil {
		var buf strings.Builder
		if err := n.template.Execute(&buf, ctx); err == nil && buf.Len() > 0 {
			return sanitizeSchemaName(buf.String())
		}
	}
	switch n.strategy {
	case NamingPackageQualified:
		if ctx.Package == "" {
			return ctx.TypeSanitized
		}
		return ctx.Package + "." + ctx.TypeSanitized
	case NamingPascalCase:
		return naming.ToPascalCase(ctx.Package) + naming.ToPascalCase(ctx.TypeSanitized)
	case NamingFullPath:
		if ctx.PackagePathSanitized == "" {
			return ctx.TypeSanitized
		}
		return ctx.PackagePathSanitized + "_" + ctx.TypeSanitized
	default:
		return ctx.TypeSanitized
	}
}

func newNameContext(ref string) NameContext {
	r := meta.TypeRef(ref)
	return NameContext{
		Ref:                  ref,
		Type:                 r.Short(),
		TypeSanitized:        sanitizeSchemaName(r.Short()),
		Package:              r.Package(),
		PackagePath:          r.PackagePath(),
		PackagePathSanitized: strings.ReplaceAll(r.PackagePath(), "/", "_"),
	}
}

// sanitizeSchemaName replaces characters that are problematic in $ref URIs.
// Example: "Page[models.User]" -> "Page_models.User"
func sanitizeSchemaName(name string) string {
	name = strings.NewReplacer("[", "_", "]", "_", ",", "_", " ", "_", "/", "_", "*", "").Replace(name)
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	return strings.TrimSuffix(name, "_")
}

// templateFuncs builds casers per call; a cases.Caser must not be shared
// between goroutines.
func templateFuncs() template.FuncMap {
	caser := func(mk func() cases.Caser) func(string) string {
		return func(s string) string { return mk().String(s) }
	}
	return template.FuncMap{
		"pascal":     naming.ToPascalCase,
		"camel":      naming.ToCamelCase,
		"snake":      naming.ToSnakeCase,
		"kebab":      naming.ToKebabCase,
		"upper":      caser(func() cases.Caser { return cases.Upper(language.Und) }),
		"lower":      caser(func() cases.Caser { return cases.Lower(language.Und) }),
		"title":      caser(func() cases.Caser { return cases.Title(language.Und) }),
		"sanitize":   sanitizeSchemaName,
		"replace":    strings.ReplaceAll,
		"trimPrefix": strings.TrimPrefix,
		"trimSuffix": strings.TrimSuffix,
	}
}
