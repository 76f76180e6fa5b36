package meta

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/dtoapi/dtoerrors"
)

type testStatus string

func (testStatus) EnumValues() []any { return []any{"active", "disabled"} }

type testRole struct {
	Name string `json:"name" dto:"required"`
}

type testAudit struct {
	CreatedAt time.Time `json:"createdAt" dto:"format=date-time"`
}

type testUser struct {
	_ struct{} `dto:"name=User,description=A registered user"`
	testAudit
	ID     int64        `json:"id" dto:"required"`
	Name   *string      `json:"name" dto:"nullable,maxLength=50"`
	Status testStatus   `json:"status" dto:""`
	Roles  []testRole   `json:"roles" dto:"uniqueItems"`
	Tags   []string     `json:"tags" dto:""`
	Flags  []testStatus `json:"flags" dto:""`
	secret string
}

type testDupe struct {
	A string `json:"a" dto:""`
	B string `dto:"name=a"`
}

func TestReflectProviderRegisterType(t *testing.T) {
	p := NewReflectProvider()
	ref, err := p.RegisterType(&testUser{})
	require.NoError(t, err)
	assert.Equal(t, RefOf(testUser{}), ref)

	tm, err := p.DescribeType(ref)
	require.NoError(t, err)
	assert.Equal(t, "User", tm.Name)
	assert.Equal(t, "A registered user", tm.Description)
	assert.Equal(t, reflect.TypeFor[testUser](), tm.GoType)
	assert.False(t, tm.IsEnum())

	var names []string
	declared := map[string]*PropertyMeta{}
	for _, prop := range tm.Properties {
		names = append(names, prop.Field.Name)
		if prop.Declared() {
			declared[prop.Meta.WireName(prop.Field.Name)] = prop.Meta
		}
	}
	assert.Equal(t, []string{"CreatedAt", "ID", "Name", "Status", "Roles", "Tags", "Flags", "secret"}, names)
	assert.NotContains(t, declared, "secret")

	t.Run("embedded fields promoted with index path", func(t *testing.T) {
		assert.Equal(t, []int{1, 0}, tm.Properties[0].Field.Index)
		assert.Contains(t, declared, "createdAt")
	})

	t.Run("enum ref inferred and registered", func(t *testing.T) {
		assert.Equal(t, RefOf(testStatus("")), declared["status"].EnumRef)
		enum, err := p.DescribeType(RefOf(testStatus("")))
		require.NoError(t, err)
		assert.True(t, enum.IsEnum())
		assert.Equal(t, []any{"active", "disabled"}, enum.EnumValues)
	})

	t.Run("items ref inferred and registered", func(t *testing.T) {
		assert.Equal(t, RefOf(testRole{}), declared["roles"].ItemsRef)
		_, err := p.DescribeType(RefOf(testRole{}))
		assert.NoError(t, err)
	})

	t.Run("primitive items type inferred", func(t *testing.T) {
		assert.Equal(t, TypeString, declared["tags"].ItemsType)
		assert.Equal(t, TypeString, declared["flags"].ItemsType)
	})
}

func TestReflectProviderResponses(t *testing.T) {
	p := NewReflectProvider()
	ref, err := p.RegisterType(testRole{}, ResponseMeta{Status: 201, Description: "created"})
	require.NoError(t, err)

	tm, err := p.DescribeType(ref)
	require.NoError(t, err)
	require.Len(t, tm.Responses, 1)
	assert.Equal(t, ref, tm.Responses[0].Payload)
	assert.Equal(t, 201, tm.Responses[0].Status)

	// re-registering without responses keeps the existing declaration
	_, err = p.RegisterType(reflect.TypeFor[testRole]())
	require.NoError(t, err)
	tm2, _ := p.DescribeType(ref)
	assert.Same(t, tm, tm2)
}

func TestReflectProviderErrors(t *testing.T) {
	p := NewReflectProvider()

	t.Run("duplicate wire name", func(t *testing.T) {
		_, err := p.RegisterType(testDupe{})
		require.Error(t, err)
		assert.ErrorIs(t, err, dtoerrors.ErrConfig)
		_, err = p.DescribeType(RefOf(testDupe{}))
		assert.ErrorIs(t, err, dtoerrors.ErrUnknownType)
	})

	t.Run("nil type", func(t *testing.T) {
		_, err := p.RegisterType(nil)
		assert.ErrorIs(t, err, dtoerrors.ErrConfig)
	})

	t.Run("unknown refs", func(t *testing.T) {
		_, err := p.DescribeType("nope.Type")
		assert.ErrorIs(t, err, dtoerrors.ErrUnknownType)
		_, err = p.DescribeOperation("nope")
		assert.ErrorIs(t, err, dtoerrors.ErrUnknownOperation)
	})

	t.Run("empty operation ref", func(t *testing.T) {
		assert.ErrorIs(t, p.RegisterOperation(OperationMeta{}), dtoerrors.ErrConfig)
	})
}

func TestReflectProviderOperations(t *testing.T) {
	p := NewReflectProvider()
	op := OperationMeta{Ref: "users.get", Summary: "Fetch", ResponseTypes: []TypeRef{"x.User"}}
	require.NoError(t, p.RegisterOperation(op))

	got, err := p.DescribeOperation("users.get")
	require.NoError(t, err)
	assert.Equal(t, op, *got)
}

func TestReflectProviderConcurrent(t *testing.T) {
	p := NewReflectProvider()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := p.RegisterType(testUser{})
			assert.NoError(t, err)
			_, err = p.DescribeType(ref)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, p.Types(), 3)
}
