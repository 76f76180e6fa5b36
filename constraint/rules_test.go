package constraint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/dtoapi/meta"
)

type point struct {
	X, Y int
}

type label string

func ptr[T any](v T) *T { return &v }

// codes returns the violation codes of vs, in order.
func codes(vs []Violation) []string {
	var out []string
	for _, v := range vs {
		out = append(out, v.Code)
	}
	return out
}

func TestRules(t *testing.T) {
	pattern, err := NewPattern(`^[a-z]+$`)
	require.NoError(t, err)

	tests := []struct {
		name  string
		rule  Rule
		value any
		want  []string
	}{
		{name: "string accepts string", rule: Type{Tag: meta.TypeString}, value: "a"},
		{name: "string accepts named string", rule: Type{Tag: meta.TypeString}, value: label("a")},
		{name: "string accepts time", rule: Type{Tag: meta.TypeString}, value: time.Now()},
		{name: "string rejects int", rule: Type{Tag: meta.TypeString}, value: 1, want: []string{CodeInvalidType}},
		{name: "integer accepts integral float", rule: Type{Tag: meta.TypeInteger}, value: 2.0},
		{name: "integer rejects fraction", rule: Type{Tag: meta.TypeInteger}, value: 2.5, want: []string{CodeInvalidType}},
		{name: "number accepts uint", rule: Type{Tag: meta.TypeNumber}, value: uint8(3)},
		{name: "boolean rejects string", rule: Type{Tag: meta.TypeBoolean}, value: "true", want: []string{CodeInvalidType}},
		{name: "array accepts slice", rule: Type{Tag: meta.TypeArray}, value: []int{1}},
		{name: "object accepts map", rule: Type{Tag: meta.TypeObject, Ref: "acme.Point"}, value: map[string]any{}},
		{name: "object checks struct ref", rule: Type{Tag: meta.TypeObject, Ref: meta.RefOf(point{})}, value: &point{}},
		{name: "object rejects other struct", rule: Type{Tag: meta.TypeObject, Ref: "acme.Other"}, value: point{}, want: []string{CodeInvalidType}},
		{name: "type ignores nil", rule: Type{Tag: meta.TypeString}, value: (*string)(nil)},

		{name: "not blank rejects empty", rule: NotBlank{}, value: "  ", want: []string{CodeBlank}},
		{name: "not blank rejects nil", rule: NotBlank{}, value: nil, want: []string{CodeBlank}},
		{name: "not blank rejects empty slice", rule: NotBlank{}, value: []string{}, want: []string{CodeBlank}},
		{name: "not blank accepts zero number", rule: NotBlank{}, value: 0},
		{name: "not null rejects nil pointer", rule: NotNull{}, value: (*int)(nil), want: []string{CodeNull}},
		{name: "not null accepts zero", rule: NotNull{}, value: ""},

		{name: "length counts runes", rule: Length{Max: ptr(3)}, value: "héé"},
		{name: "length too long", rule: Length{Max: ptr(3)}, value: "abcd", want: []string{CodeTooLong}},
		{name: "length too short", rule: Length{Min: ptr(2)}, value: "a", want: []string{CodeTooShort}},
		{name: "length ignores non strings", rule: Length{Min: ptr(2)}, value: 1},
		{name: "pattern matches", rule: pattern, value: "abc"},
		{name: "pattern mismatch", rule: pattern, value: "ab1", want: []string{CodePattern}},

		{name: "email", rule: Format{Name: meta.FormatEmail}, value: "a@example.com"},
		{name: "bad email", rule: Format{Name: meta.FormatEmail}, value: "nope", want: []string{CodeInvalidFormat}},
		{name: "uuid", rule: Format{Name: meta.FormatUUID}, value: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{name: "bad uuid", rule: Format{Name: meta.FormatUUID}, value: "6ba7b810", want: []string{CodeInvalidFormat}},
		{name: "uri", rule: Format{Name: meta.FormatURI}, value: "https://example.com/a"},
		{name: "bad url", rule: Format{Name: meta.FormatURL}, value: "not a url", want: []string{CodeInvalidFormat}},
		{name: "date", rule: Format{Name: meta.FormatDate}, value: "2024-02-29"},
		{name: "bad date", rule: Format{Name: meta.FormatDate}, value: "2024-13-01", want: []string{CodeInvalidFormat}},
		{name: "time", rule: Format{Name: meta.FormatTime}, value: "13:45:00"},
		{name: "bad time", rule: Format{Name: meta.FormatTime}, value: "25:00:00", want: []string{CodeInvalidFormat}},
		{name: "date-time", rule: Format{Name: meta.FormatDateTime}, value: "2024-02-29T13:45:00Z"},
		{name: "bad date-time", rule: Format{Name: meta.FormatDateTime}, value: "2024-02-29", want: []string{CodeInvalidFormat}},

		{name: "greater than", rule: Compare{Op: KindGreaterThan, Limit: 1}, value: 1, want: []string{CodeTooSmall}},
		{name: "greater or equal", rule: Compare{Op: KindGreaterOrEq, Limit: 1}, value: 1},
		{name: "less than", rule: Compare{Op: KindLessThan, Limit: 10}, value: 10.0, want: []string{CodeTooBig}},
		{name: "less or equal", rule: Compare{Op: KindLessOrEq, Limit: 10}, value: int64(10)},
		{name: "compare ignores strings", rule: Compare{Op: KindLessThan, Limit: 0}, value: "5"},
		{name: "multiple of", rule: MultipleOf{Factor: 0.1}, value: 0.3},
		{name: "not multiple of", rule: MultipleOf{Factor: 3}, value: 10, want: []string{CodeMultipleOf}},

		{name: "count too few", rule: Count{Min: ptr(1)}, value: []any{}, want: []string{CodeTooFew}},
		{name: "count too many", rule: Count{Max: ptr(1)}, value: []int{1, 2}, want: []string{CodeTooMany}},
		{name: "choice", rule: Choice{Choices: []any{"a", int64(1)}}, value: 1.0},
		{name: "choice named string", rule: Choice{Choices: []any{"active"}}, value: label("active")},
		{name: "not a choice", rule: Choice{Choices: []any{"a", "b"}}, value: "c", want: []string{CodeInvalidEnum}},
		{name: "valid never fails", rule: Valid{Ref: "acme.Point"}, value: 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(tt.rule.Check(tt.value)))
		})
	}
}

func TestNewPatternInvalid(t *testing.T) {
	_, err := NewPattern(`(`)
	assert.Error(t, err)
}

func TestAll(t *testing.T) {
	rule := All{Rules: []Rule{Type{Tag: meta.TypeString}, Length{Max: ptr(2)}}}
	got := rule.Check([]any{"ok", 3, "long"})
	require.Len(t, got, 2)
	assert.Equal(t, "[1]", got[0].Path)
	assert.Equal(t, CodeInvalidType, got[0].Code)
	assert.Equal(t, "[2]", got[1].Path)
	assert.Equal(t, CodeTooLong, got[1].Code)
}

func TestUnique(t *testing.T) {
	shared := &point{X: 1}
	tests := []struct {
		name     string
		value    any
		wantPath string
	}{
		{name: "distinct scalars", value: []any{"a", "b", 1}},
		{name: "numbers by value", value: []any{1, int64(2), 1.0}, wantPath: "[2]"},
		{name: "first duplicate only", value: []string{"a", "b", "a", "b"}, wantPath: "[2]"},
		{name: "nulls collide", value: []any{nil, "a", nil}, wantPath: "[2]"},
		{name: "structs by value", value: []point{{1, 2}, {1, 2}}, wantPath: "[1]"},
		{name: "pointers by identity", value: []*point{{X: 1}, {X: 1}}},
		{name: "same pointer twice", value: []*point{shared, shared}, wantPath: "[1]"},
		{name: "maps by identity", value: []any{map[string]any{"a": 1}, map[string]any{"a": 1}}},
		{name: "nil slice", value: []string(nil)},
		{name: "not a collection", value: "aa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unique{}.Check(tt.value)
			if tt.wantPath == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantPath, got[0].Path)
			assert.Equal(t, CodeDuplicate, got[0].Code)
		})
	}
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "items[2].name", JoinPath("items", "[2].name"))
	assert.Equal(t, "owner.name", JoinPath("owner", "name"))
	assert.Equal(t, "name", JoinPath("", "name"))
	assert.Equal(t, "name", JoinPath("name", ""))

	v := Violation{Path: "[0]", Code: CodeTooLong, Message: "too long"}.Under("tags")
	assert.Equal(t, "tags[0]: too long", v.Error())
	assert.Equal(t, "required: must be present", Violation{Code: CodeRequired, Message: "must be present"}.Error())
}
