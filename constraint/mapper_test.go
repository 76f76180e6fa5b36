package constraint

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/dtoapi/meta"
)

type status string

func (status) EnumValues() []any { return []any{"active", "disabled"} }

type role struct {
	Name string `json:"name" dto:"required"`
}

type account struct {
	Email   string    `json:"email" dto:"required,format=email,maxLength=120"`
	Age     int       `json:"age" dto:"minimum=18,maximum=130,exclusiveMaximum"`
	Nick    *string   `json:"nick" dto:"nullable,required"`
	Roles   []role    `json:"roles" dto:"minItems=1,uniqueItems"`
	Owner   *role     `json:"owner" dto:"nullable"`
	Status  status    `json:"status" dto:""`
	Seen    time.Time `json:"seen" dto:"format=date-time"`
	Payload any       `json:"payload" dto:"nullable"`
	Code    string    `json:"code" dto:"pattern=^[A-Z]{3}$,assert=notBlank"`
}

// kinds returns the rule kinds of rules, in order.
func kinds(rules []Rule) []string {
	var out []string
	for _, r := range rules {
		out = append(out, r.Kind())
	}
	return out
}

func accountProperties(t *testing.T) (*meta.ReflectProvider, map[string]meta.Property) {
	t.Helper()
	p := meta.NewReflectProvider()
	ref, err := p.RegisterType(account{})
	require.NoError(t, err)
	tm, err := p.DescribeType(ref)
	require.NoError(t, err)
	props := make(map[string]meta.Property)
	for _, prop := range tm.Properties {
		props[prop.Field.Name] = prop
	}
	return p, props
}

func TestMapStructFields(t *testing.T) {
	p, props := accountProperties(t)
	m := NewMapper(p)

	tests := []struct {
		field string
		want  []string
	}{
		{field: "Email", want: []string{KindType, KindNotBlank, KindLength, KindFormat}},
		{field: "Age", want: []string{KindType, KindNotNull, KindGreaterOrEq, KindLessThan}},
		{field: "Nick", want: []string{KindType}},
		{field: "Roles", want: []string{KindType, KindNotNull, KindCount, KindUnique, KindAll}},
		{field: "Owner", want: []string{KindType, KindValid}},
		{field: "Status", want: []string{KindType, KindNotNull, KindChoice}},
		{field: "Seen", want: []string{KindType, KindNotNull, KindFormat}},
		{field: "Payload", want: nil},
		{field: "Code", want: []string{KindType, KindNotNull, KindPattern, KindNotBlank}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			prop, ok := props[tt.field]
			require.True(t, ok)
			assert.Equal(t, tt.want, kinds(m.Map(prop.Field, prop.Meta)))
		})
	}

	t.Run("struct field cascades", func(t *testing.T) {
		prop := props["Owner"]
		rules := m.Map(prop.Field, prop.Meta)
		assert.Equal(t, Valid{Ref: meta.RefOf(role{})}, rules[1])
	})

	t.Run("array items cascade", func(t *testing.T) {
		prop := props["Roles"]
		rules := m.Map(prop.Field, prop.Meta)
		all, ok := rules[len(rules)-1].(All)
		require.True(t, ok)
		assert.Equal(t, []string{KindType, KindValid}, kinds(all.Rules))
		assert.Equal(t, Valid{Ref: meta.RefOf(role{})}, all.Rules[1])
	})

	t.Run("enumeration values", func(t *testing.T) {
		prop := props["Status"]
		rules := m.Map(prop.Field, prop.Meta)
		assert.Equal(t, Choice{Choices: []any{"active", "disabled"}}, rules[2])
	})
}

func TestMapDeclared(t *testing.T) {
	m := NewMapper(nil)
	field := meta.FieldDescriptor{Name: "score"}

	t.Run("untyped declaration", func(t *testing.T) {
		assert.Equal(t, []string{KindNotNull}, kinds(m.Map(field, &meta.PropertyMeta{})))
	})

	t.Run("numeric bounds", func(t *testing.T) {
		rules := m.Map(field, &meta.PropertyMeta{
			Type:             meta.TypeNumber,
			Required:         true,
			Minimum:          ptr(0.0),
			ExclusiveMinimum: true,
			Maximum:          ptr(1.0),
			MultipleOf:       ptr(0.5),
		})
		assert.Equal(t, []Rule{
			Type{Tag: meta.TypeNumber},
			NotNull{},
			Compare{Op: KindGreaterThan, Limit: 0},
			Compare{Op: KindLessOrEq, Limit: 1},
			MultipleOf{Factor: 0.5},
		}, rules)
	})

	t.Run("int64 format degrades to type check", func(t *testing.T) {
		rules := m.Map(field, &meta.PropertyMeta{Type: meta.TypeInteger, Format: meta.FormatInt64, Nullable: true})
		assert.Equal(t, []Rule{Type{Tag: meta.TypeInteger}, Type{Tag: meta.TypeInteger}}, rules)
	})

	t.Run("string formats need a string", func(t *testing.T) {
		rules := m.Map(field, &meta.PropertyMeta{Type: meta.TypeInteger, Format: meta.FormatEmail, Nullable: true})
		assert.Equal(t, []string{KindType}, kinds(rules))
	})

	t.Run("items type and reference", func(t *testing.T) {
		rules := m.Map(field, &meta.PropertyMeta{
			Type:      meta.TypeArray,
			Nullable:  true,
			ItemsType: meta.TypeObject,
			ItemsRef:  "acme.Role",
		})
		require.Len(t, rules, 2)
		assert.Equal(t, All{Rules: []Rule{
			Type{Tag: meta.TypeObject},
			Type{Tag: meta.TypeObject, Ref: "acme.Role"},
			Valid{Ref: "acme.Role"},
		}}, rules[1])
	})

	t.Run("literal enum wins over reference", func(t *testing.T) {
		rules := m.Map(field, &meta.PropertyMeta{Nullable: true, Enum: []any{"a"}, EnumRef: "acme.Status"})
		assert.Equal(t, []Rule{Choice{Choices: []any{"a"}}}, rules)
	})

	t.Run("unknown enumeration reference", func(t *testing.T) {
		assert.Empty(t, m.Map(field, &meta.PropertyMeta{Nullable: true, EnumRef: "acme.Status"}))
	})

	t.Run("invalid pattern skipped", func(t *testing.T) {
		rules := m.Map(field, &meta.PropertyMeta{Type: meta.TypeString, Nullable: true, Pattern: "("})
		assert.Equal(t, []string{KindType}, kinds(rules))
	})

	t.Run("nil metadata", func(t *testing.T) {
		assert.Nil(t, m.Map(field, nil))
	})
}

func TestMapDeclaredEnumeration(t *testing.T) {
	d, err := meta.ParseDeclarations([]byte(`
types:
  - ref: acme.Status
    enum: [active, disabled]
  - ref: acme.User
    properties:
      - {name: role, type: object}
`))
	require.NoError(t, err)
	m := NewMapper(d)

	rules := m.Map(meta.FieldDescriptor{Name: "status"}, &meta.PropertyMeta{Type: meta.TypeString, Nullable: true, EnumRef: "acme.Status"})
	assert.Equal(t, []Rule{Type{Tag: meta.TypeString}, Choice{Choices: []any{"active", "disabled"}}}, rules)

	// a non-enumeration reference contributes nothing
	rules = m.Map(meta.FieldDescriptor{Name: "user"}, &meta.PropertyMeta{Nullable: true, EnumRef: "acme.User"})
	assert.Empty(t, rules)
}

func TestMapAdHocRules(t *testing.T) {
	calls := 0
	m := NewMapper(nil,
		WithFactory("even", func(map[string]any) (Rule, error) {
			calls++
			return RuleFunc{Name: "even", Fn: func(v any) []Violation {
				if n, ok := v.(int); ok && n%2 != 0 {
					return violation("odd", "must be even", nil)
				}
				return nil
			}}, nil
		}),
		WithFactory("broken", func(map[string]any) (Rule, error) {
			return nil, errors.New("boom")
		}),
	)

	pm := &meta.PropertyMeta{
		Type:     meta.TypeInteger,
		Nullable: true,
		Extensions: map[string]any{
			meta.AssertExtension: []any{
				"even",
				[]any{"range", map[string]any{"min": 1, "max": 5}},
				"missing",
				"broken",
				[]any{"length"},
				[]any{42},
				[]any{"count", map[string]any{"max": uint64(2)}},
			},
		},
	}
	rules := m.Map(meta.FieldDescriptor{Name: "n"}, pm)
	assert.Equal(t, []string{KindType, "even", "range", KindCount}, kinds(rules))
	assert.Equal(t, 1, calls)

	rangeRule := rules[2]
	assert.Empty(t, rangeRule.Check(3))
	assert.Equal(t, []string{CodeTooSmall}, codes(rangeRule.Check(0)))
	assert.Equal(t, []string{CodeTooBig}, codes(rangeRule.Check(6)))
	assert.Equal(t, []string{"odd"}, codes(rules[1].Check(3)))
}

func TestMapAdHocShapes(t *testing.T) {
	m := NewMapper(nil)
	field := meta.FieldDescriptor{Name: "code"}

	tests := []struct {
		name   string
		assert any
		want   []string
	}{
		{name: "single name", assert: "notBlank", want: []string{KindNotBlank}},
		{name: "string list", assert: []string{"notNull", "unique"}, want: []string{KindNotNull, KindUnique}},
		{name: "yaml map args", assert: []any{[]any{"pattern", map[any]any{"pattern": "^a"}}}, want: []string{KindPattern}},
		{name: "choice args", assert: []any{[]any{"choice", map[string]any{"choices": []any{"a", "b"}}}}, want: []string{KindChoice}},
		{name: "format args", assert: []any{[]any{"format", map[string]any{"format": "uuid"}}}, want: []string{KindFormat}},
		{name: "unsupported format", assert: []any{[]any{"format", map[string]any{"format": "ipv4"}}}},
		{name: "malformed", assert: 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := &meta.PropertyMeta{Nullable: true, Extensions: map[string]any{meta.AssertExtension: tt.assert}}
			assert.Equal(t, tt.want, kinds(m.Map(field, pm)))
		})
	}
}

func TestRegisterFactory(t *testing.T) {
	m := NewMapper(nil)
	assert.NotContains(t, m.Factories(), "ipv4")
	m.RegisterFactory("ipv4", func(map[string]any) (Rule, error) {
		return RuleFunc{Name: "ipv4", Fn: func(any) []Violation { return nil }}, nil
	})
	assert.Contains(t, m.Factories(), "ipv4")
	assert.Contains(t, m.Factories(), "range")

	pm := &meta.PropertyMeta{Nullable: true, Extensions: map[string]any{meta.AssertExtension: "ipv4"}}
	assert.Equal(t, []string{"ipv4"}, kinds(m.Map(meta.FieldDescriptor{}, pm)))
}

func TestMapContributors(t *testing.T) {
	var seen []string
	contributor := ContributorFunc(func(field meta.FieldDescriptor, pm *meta.PropertyMeta) []Rule {
		seen = append(seen, field.Name)
		if pm.Type != meta.TypeString {
			return nil
		}
		return []Rule{RuleFunc{Name: "slug", Fn: func(any) []Violation { return nil }}}
	})
	m := NewMapper(nil, WithContributor(contributor))

	field := meta.FieldDescriptor{Name: "Slug", Type: reflect.TypeFor[string]()}
	rules := m.Map(field, &meta.PropertyMeta{
		Required:   true,
		Enum:       []any{"a"},
		Extensions: map[string]any{meta.AssertExtension: "notNull"},
	})
	assert.Equal(t, []string{KindType, KindNotBlank, KindChoice, KindNotNull}, kinds(rules))

	rules = m.Map(field, &meta.PropertyMeta{Type: meta.TypeString})
	assert.Equal(t, []string{KindType, KindNotNull, "slug"}, kinds(rules))
	assert.Equal(t, []string{"Slug", "Slug"}, seen)
}
