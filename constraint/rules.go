package constraint

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/grafana/regexp"

	"github.com/erraggy/dtoapi/meta"
)

// Rule kinds.
const (
	KindType        = "type"
	KindNotBlank    = "not_blank"
	KindNotNull     = "not_null"
	KindLength      = "length"
	KindPattern     = "pattern"
	KindFormat      = "format"
	KindGreaterThan = "greater_than"
	KindGreaterOrEq = "greater_than_or_equal"
	KindLessThan    = "less_than"
	KindLessOrEq    = "less_than_or_equal"
	KindMultipleOf  = "multiple_of"
	KindCount       = "count"
	KindUnique      = "unique"
	KindAll         = "all"
	KindValid       = "valid"
	KindChoice      = "choice"
)

// Rule is one executable check derived from property metadata. Rules other
// than NotNull and NotBlank accept nil.
type Rule interface {
	Kind() string
	Check(value any) []Violation
}

// RuleFunc adapts a function to Rule.
type RuleFunc struct {
	Name string
	Fn   func(value any) []Violation
}

// Kind returns the rule name.
func (r RuleFunc) Kind() string { return r.Name }

// Check calls Fn.
func (r RuleFunc) Check(value any) []Violation { return r.Fn(value) }

// indirect unwraps pointers and interfaces. The result is invalid for nil.
func indirect(value any) reflect.Value {
	v := reflect.ValueOf(value)
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// IsNil reports whether value is nil or a nil pointer, map, slice or interface.
func IsNil(value any) bool {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func numeric(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func isTextValue(v reflect.Value) bool {
	if v.Type() == reflect.TypeFor[time.Time]() {
		return true
	}
	if v.CanInterface() {
		if _, ok := v.Interface().(encoding.TextMarshaler); ok {
			return true
		}
	}
	return false
}

// Type checks the value's kind against a type tag. With Ref set, struct
// values must be of the referenced type; decoded maps are accepted.
type Type struct {
	Tag string
	Ref meta.TypeRef
}

// Kind implements Rule.
func (Type) Kind() string { return KindType }

// Check implements Rule.
func (r Type) Check(value any) []Violation {
	v := indirect(value)
	if !v.IsValid() || r.accepts(v) {
		return nil
	}
	want := r.Tag
	if r.Ref != "" {
		want = string(r.Ref)
	}
	return violation(CodeInvalidType, fmt.Sprintf("must be of type %s", want), map[string]any{"type": want})
}

func (r Type) accepts(v reflect.Value) bool {
	switch r.Tag {
	case meta.TypeString:
		return v.Kind() == reflect.String || isTextValue(v) ||
			(v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8)
	case meta.TypeInteger:
		f, ok := numeric(v)
		return ok && f == math.Trunc(f) && !math.IsInf(f, 0)
	case meta.TypeNumber:
		_, ok := numeric(v)
		return ok
	case meta.TypeBoolean:
		return v.Kind() == reflect.Bool
	case meta.TypeArray:
		return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
	case meta.TypeObject:
		switch v.Kind() {
		case reflect.Map:
			return true
		case reflect.Struct:
			return r.Ref == "" || meta.RefFor(v.Type()) == r.Ref
		}
		return false
	}
	return true
}

// NotBlank rejects nil, empty strings and empty collections.
type NotBlank struct{}

// Kind implements Rule.
func (NotBlank) Kind() string { return KindNotBlank }

// Check implements Rule.
func (NotBlank) Check(value any) []Violation {
	v := indirect(value)
	if !v.IsValid() {
		return violation(CodeBlank, "must not be blank", nil)
	}
	switch v.Kind() {
	case reflect.String:
		if strings.TrimSpace(v.String()) == "" {
			return violation(CodeBlank, "must not be blank", nil)
		}
	case reflect.Slice, reflect.Map, reflect.Array:
		if v.Len() == 0 {
			return violation(CodeBlank, "must not be blank", nil)
		}
	}
	return nil
}

// NotNull rejects nil.
type NotNull struct{}

// Kind implements Rule.
func (NotNull) Kind() string { return KindNotNull }

// Check implements Rule.
func (NotNull) Check(value any) []Violation {
	if IsNil(value) {
		return violation(CodeNull, "must not be null", nil)
	}
	return nil
}

// Length bounds the number of characters of a string.
type Length struct {
	Min *int
	Max *int
}

// Kind implements Rule.
func (Length) Kind() string { return KindLength }

// Check implements Rule.
func (r Length) Check(value any) []Violation {
	v := indirect(value)
	if !v.IsValid() || v.Kind() != reflect.String {
		return nil
	}
	n := utf8.RuneCountInString(v.String())
	if r.Min != nil && n < *r.Min {
		return violation(CodeTooShort, fmt.Sprintf("must be at least %d characters long", *r.Min), map[string]any{"min": *r.Min, "got": n})
	}
	if r.Max != nil && n > *r.Max {
		return violation(CodeTooLong, fmt.Sprintf("must be at most %d characters long", *r.Max), map[string]any{"max": *r.Max, "got": n})
	}
	return nil
}

// Pattern requires a string to contain a match of a regular expression.
type Pattern struct {
	re *regexp.Regexp
}

// NewPattern compiles expr.
func NewPattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re}, nil
}

// Kind implements Rule.
func (*Pattern) Kind() string { return KindPattern }

// Expr returns the source expression.
func (r *Pattern) Expr() string { return r.re.String() }

// Check implements Rule.
func (r *Pattern) Check(value any) []Violation {
	v := indirect(value)
	if !v.IsValid() || v.Kind() != reflect.String {
		return nil
	}
	if !r.re.MatchString(v.String()) {
		return violation(CodePattern, "must match pattern "+r.re.String(), map[string]any{"pattern": r.re.String()})
	}
	return nil
}

// Format checks a string against a named format: email, uuid, uri, url,
// date, time or date-time.
type Format struct {
	Name string
}

// SupportsFormat reports whether name has a Format validator.
func SupportsFormat(name string) bool {
	switch name {
	case meta.FormatEmail, meta.FormatUUID, meta.FormatURI, meta.FormatURL,
		meta.FormatDate, meta.FormatTime, meta.FormatDateTime:
		return true
	}
	return false
}

// Kind implements Rule.
func (Format) Kind() string { return KindFormat }

// Check implements Rule.
func (r Format) Check(value any) []Violation {
	v := indirect(value)
	if !v.IsValid() || v.Kind() != reflect.String {
		return nil
	}
	if !validFormat(r.Name, v.String()) {
		return violation(CodeInvalidFormat, "must be a valid "+r.Name, map[string]any{"format": r.Name})
	}
	return nil
}

func validFormat(name, s string) bool {
	switch name {
	case meta.FormatEmail:
		return strfmt.IsEmail(s)
	case meta.FormatUUID:
		_, err := uuid.Parse(s)
		return err == nil
	case meta.FormatURI, meta.FormatURL:
		return strfmt.Default.Validates("uri", s)
	case meta.FormatDate:
		return strfmt.IsDate(s)
	case meta.FormatTime:
		_, err := time.Parse(time.TimeOnly, s)
		return err == nil
	case meta.FormatDateTime:
		return strfmt.IsDateTime(s)
	}
	return true
}

// Compare bounds a number. Op is one of the greater/less kinds.
type Compare struct {
	Op    string
	Limit float64
}

// Kind implements Rule.
func (r Compare) Kind() string { return r.Op }

// Check implements Rule.
func (r Compare) Check(value any) []Violation {
	f, ok := numeric(indirect(value))
	if !ok {
		return nil
	}
	params := map[string]any{"limit": r.Limit, "got": f}
	switch r.Op {
	case KindGreaterThan:
		if f <= r.Limit {
			return violation(CodeTooSmall, fmt.Sprintf("must be greater than %v", r.Limit), params)
		}
	case KindGreaterOrEq:
		if f < r.Limit {
			return violation(CodeTooSmall, fmt.Sprintf("must be greater than or equal to %v", r.Limit), params)
		}
	case KindLessThan:
		if f >= r.Limit {
			return violation(CodeTooBig, fmt.Sprintf("must be less than %v", r.Limit), params)
		}
	case KindLessOrEq:
		if f > r.Limit {
			return violation(CodeTooBig, fmt.Sprintf("must be less than or equal to %v", r.Limit), params)
		}
	}
	return nil
}

// MultipleOf requires a number to be a multiple of Factor.
type MultipleOf struct {
	Factor float64
}

// Kind implements Rule.
func (MultipleOf) Kind() string { return KindMultipleOf }

// Check implements Rule.
func (r MultipleOf) Check(value any) []Violation {
	f, ok := numeric(indirect(value))
	if !ok || r.Factor == 0 {
		return nil
	}
	q := f / r.Factor
	if math.Abs(q-math.Round(q)) > 1e-9 {
		return violation(CodeMultipleOf, fmt.Sprintf("must be a multiple of %v", r.Factor), map[string]any{"factor": r.Factor})
	}
	return nil
}

// Count bounds the number of items of a collection.
type Count struct {
	Min *int
	Max *int
}

// Kind implements Rule.
func (Count) Kind() string { return KindCount }

// Check implements Rule.
func (r Count) Check(value any) []Violation {
	v := indirect(value)
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
	default:
		return nil
	}
	n := v.Len()
	if r.Min != nil && n < *r.Min {
		return violation(CodeTooFew, fmt.Sprintf("must contain at least %d items", *r.Min), map[string]any{"min": *r.Min, "got": n})
	}
	if r.Max != nil && n > *r.Max {
		return violation(CodeTooMany, fmt.Sprintf("must contain at most %d items", *r.Max), map[string]any{"max": *r.Max, "got": n})
	}
	return nil
}

// All applies Rules to every item of a collection.
type All struct {
	Rules []Rule
}

// Kind implements Rule.
func (All) Kind() string { return KindAll }

// Check implements Rule.
func (r All) Check(value any) []Violation {
	v := indirect(value)
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return nil
	}
	var out []Violation
	for i := range v.Len() {
		item := itemValue(v.Index(i))
		for _, rule := range r.Rules {
			for _, viol := range rule.Check(item) {
				out = append(out, viol.Under(Index(i)))
			}
		}
	}
	return out
}

// Valid marks a value whose own rules must be checked. It carries the
// referenced type; the check itself happens in the validation engine.
type Valid struct {
	Ref meta.TypeRef
}

// Kind implements Rule.
func (Valid) Kind() string { return KindValid }

// Check implements Rule.
func (Valid) Check(any) []Violation { return nil }

// Choice restricts a value to a set of allowed values. Numbers compare by
// value regardless of their Go type.
type Choice struct {
	Choices []any
}

// Kind implements Rule.
func (Choice) Kind() string { return KindChoice }

// Check implements Rule.
func (r Choice) Check(value any) []Violation {
	v := indirect(value)
	if !v.IsValid() {
		return nil
	}
	key, ok := scalarKey(v)
	if !ok {
		return nil
	}
	if slices.ContainsFunc(r.Choices, func(c any) bool {
		ck, ok := scalarKey(indirect(c))
		return ok && ck == key
	}) {
		return nil
	}
	return violation(CodeInvalidEnum, fmt.Sprintf("must be one of %v", r.Choices), map[string]any{"choices": r.Choices})
}

// itemValue returns the interface value of a collection item, or nil when
// it cannot be interfaced.
func itemValue(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}
