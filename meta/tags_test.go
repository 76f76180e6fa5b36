package meta

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDTOTag(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want []tagEntry
	}{
		{name: "empty", tag: "", want: nil},
		{
			name: "pairs and flags",
			tag:  "name=id, required ,maxLength=50",
			want: []tagEntry{{"name", "id"}, {"required", "true"}, {"maxLength", "50"}},
		},
		{
			name: "escaped comma",
			tag:  `pattern=^\d{1\,3}$,nullable`,
			want: []tagEntry{{"pattern", `^\d{1,3}$`}, {"nullable", "true"}},
		},
		{
			name: "value with equals",
			tag:  "description=a=b",
			want: []tagEntry{{"description", "a=b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDTOTag(tt.tag))
		})
	}
}

func TestPropertyFromField(t *testing.T) {
	type sample struct {
		Untagged string
		Skipped  string   `dto:"-"`
		Bare     string   `dto:""`
		JSONName int      `json:"json_name,omitempty" dto:"required,minimum=1,maximum=10,exclusiveMaximum,default=3"`
		Override int      `json:"ignored" dto:"name=explicit"`
		Enum     string   `dto:"enum=a|b| c,example=a"`
		Flags    []string `dto:"minItems=1,maxItems=bad,uniqueItems,readOnly,writeOnly=false"`
		Ext      string   `dto:"x-internal,x-weight=2,x-label=hi,assert=slug,assert=lower"`
		Old      string   `dto:"deprecated=use New,order=2"`
		Multi    float64  `dto:"multipleOf=0.5,format=float"`
	}
	st := reflect.TypeFor[sample]()
	field := func(name string) reflect.StructField {
		f, ok := st.FieldByName(name)
		require.True(t, ok)
		return f
	}

	t.Run("untagged and dash are undeclared", func(t *testing.T) {
		_, ok := propertyFromField(field("Untagged"))
		assert.False(t, ok)
		_, ok = propertyFromField(field("Skipped"))
		assert.False(t, ok)
	})

	t.Run("bare tag declares with defaults", func(t *testing.T) {
		pm, ok := propertyFromField(field("Bare"))
		require.True(t, ok)
		assert.Equal(t, "Bare", pm.WireName("Bare"))
		assert.False(t, pm.Required)
	})

	t.Run("json name and numeric bounds", func(t *testing.T) {
		pm, ok := propertyFromField(field("JSONName"))
		require.True(t, ok)
		assert.Equal(t, "json_name", pm.Name)
		assert.True(t, pm.Required)
		require.NotNil(t, pm.Minimum)
		assert.Equal(t, 1.0, *pm.Minimum)
		assert.Equal(t, 10.0, *pm.Maximum)
		assert.True(t, pm.ExclusiveMaximum)
		assert.Equal(t, int64(3), pm.Default)
	})

	t.Run("explicit name wins", func(t *testing.T) {
		pm, _ := propertyFromField(field("Override"))
		assert.Equal(t, "explicit", pm.Name)
	})

	t.Run("enum list", func(t *testing.T) {
		pm, _ := propertyFromField(field("Enum"))
		assert.Equal(t, []any{"a", "b", "c"}, pm.Enum)
		assert.Equal(t, "a", pm.Example)
	})

	t.Run("array bounds and tri-state flags", func(t *testing.T) {
		pm, _ := propertyFromField(field("Flags"))
		require.NotNil(t, pm.MinItems)
		assert.Equal(t, 1, *pm.MinItems)
		assert.Nil(t, pm.MaxItems)
		assert.True(t, pm.UniqueItems)
		require.NotNil(t, pm.ReadOnly)
		assert.True(t, *pm.ReadOnly)
		require.NotNil(t, pm.WriteOnly)
		assert.False(t, *pm.WriteOnly)
	})

	t.Run("extensions and asserts", func(t *testing.T) {
		pm, _ := propertyFromField(field("Ext"))
		assert.Equal(t, true, pm.Extensions["x-internal"])
		assert.Equal(t, int64(2), pm.Extensions["x-weight"])
		assert.Equal(t, "hi", pm.Extensions["x-label"])
		assert.Equal(t, []any{"slug", "lower"}, pm.Extensions[AssertExtension])
	})

	t.Run("deprecation reason and order", func(t *testing.T) {
		pm, _ := propertyFromField(field("Old"))
		assert.True(t, pm.Deprecated)
		assert.Equal(t, "use New", pm.DeprecationReason)
		require.NotNil(t, pm.Order)
		assert.Equal(t, 2, *pm.Order)
	})

	t.Run("multipleOf and format", func(t *testing.T) {
		pm, _ := propertyFromField(field("Multi"))
		assert.Equal(t, 0.5, *pm.MultipleOf)
		assert.Equal(t, FormatFloat, pm.Format)
	})
}

func TestParseTypedValue(t *testing.T) {
	assert.Equal(t, int64(5), parseTypedValue("5", TypeInteger))
	assert.Equal(t, "x", parseTypedValue("x", TypeInteger))
	assert.Equal(t, 1.5, parseTypedValue("1.5", TypeNumber))
	assert.Equal(t, true, parseTypedValue("true", TypeBoolean))
	assert.Equal(t, "5", parseTypedValue("5", TypeString))
	assert.Equal(t, int64(5), parseTypedValue("5", ""))
	assert.Equal(t, "1", parseTypedValue("1", TypeArray))
}
