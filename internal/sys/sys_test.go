package sys

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/dball/fieldstate/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestCasts(t *testing.T) {
	now := time.Date(2023, 2, 1, 12, 30, 0, 0, time.UTC)
	cases := []struct {
		name     string
		typ      types.Type
		raw      any
		expected any
	}{
		{"int from int", Int, 3, types.Int(3)},
		{"int from string", Int, " 42 ", types.Int(42)},
		{"int from float string", Int, "1.9", types.Int(1)},
		{"int from float", Int, 2.5, types.Int(2)},
		{"int from json", Int, json.Number("7"), types.Int(7)},
		{"int from bool", Int, true, types.Int(1)},
		{"int from blank", Int, "", nil},
		{"float from string", Float, "1.5", types.Float(1.5)},
		{"float from int", Float, int64(2), types.Float(2)},
		{"string from string", String, "foo", types.String("foo")},
		{"string from int", String, 12, types.String("12")},
		{"string from float", String, 1.25, types.String("1.25")},
		{"string from bool", String, false, types.String("false")},
		{"bool from string", Bool, "yes", types.Bool(true)},
		{"bool from system string", Bool, types.String("off"), types.Bool(false)},
		{"bool from number", Bool, 0, types.Bool(false)},
		{"inst from string", Inst, "2023-02-01T12:30:00Z", types.Inst(now)},
		{"inst from time", Inst, now, types.Inst(now)},
		{"inst from millis", Inst, now.UnixMilli(), types.Inst(now)},
		{"strings from list", Strings, []any{"a", "b"}, types.Strings{"a", "b"}},
		{"strings from string", Strings, "a, b", types.Strings{"a", "b"}},
		{"value is identity", Value, struct{ x int }{1}, struct{ x int }{1}},
		{"nil is nil", Int, nil, nil},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			value, err := c.typ.Cast(c.raw)
			assert.NoError(t, err)
			assert.Equal(t, c.expected, value)
		})
	}

	t.Run("invalid casts", func(t *testing.T) {
		invalid := []struct {
			typ types.Type
			raw any
		}{
			{Int, "one"},
			{Float, "1.5.1"},
			{Bool, "maybe"},
			{Inst, "yesterday"},
			{Strings, []any{"a", 1}},
			{String, struct{}{}},
		}
		for _, c := range invalid {
			_, err := c.typ.Cast(c.raw)
			assert.ErrorIs(t, err, types.Error{Code: "sys.invalidCast"})
		}
	})
}

func TestSerialize(t *testing.T) {
	serialized, err := Int.Serialize(types.Int(3))
	assert.NoError(t, err)
	assert.Equal(t, int64(3), serialized)
	serialized, err = Strings.Serialize(types.Strings{"a", "b"})
	assert.NoError(t, err)
	assert.Equal(t, "a,b", serialized)
	serialized, err = Bool.Serialize(nil)
	assert.NoError(t, err)
	assert.Nil(t, serialized)
	_, err = String.Serialize(3)
	assert.ErrorIs(t, err, types.Error{Code: "sys.invalidCast"})
}

func TestStrings(t *testing.T) {
	deserializer, ok := Strings.(types.Deserializer)
	assert.True(t, ok)
	value, err := deserializer.Deserialize("")
	assert.NoError(t, err)
	assert.Equal(t, types.Strings{}, value)

	changed, err := Strings.ChangedInPlace(types.Strings{"a"}, types.Strings{"a"})
	assert.NoError(t, err)
	assert.False(t, changed)
	changed, err = Strings.ChangedInPlace(types.Strings{"a"}, types.Strings{"b"})
	assert.NoError(t, err)
	assert.True(t, changed)
}

type customType struct {
	valueType
	label string
}

func TestRegistry(t *testing.T) {
	t.Run("system types", func(t *testing.T) {
		typ, ok := ResolveType(AttrTypeInt)
		assert.True(t, ok)
		assert.Equal(t, Int, typ)
		ident, ok := TypeIdent(Strings)
		assert.True(t, ok)
		assert.Equal(t, AttrTypeStrings, ident)
	})

	t.Run("user types", func(t *testing.T) {
		custom := customType{label: "x"}
		assert.NoError(t, Register("test/custom", custom))
		assert.NoError(t, Register("test/custom", customType{label: "x"}))
		assert.ErrorIs(t, Register("test/custom", customType{label: "y"}), types.Error{Code: "sys.duplicateIdent"})
		typ, ok := ResolveType("test/custom")
		assert.True(t, ok)
		assert.True(t, types.SameType(custom, typ))
		ident, ok := TypeIdent(customType{label: "x"})
		assert.True(t, ok)
		assert.Equal(t, "test/custom", ident)
	})

	t.Run("reserved idents", func(t *testing.T) {
		assert.ErrorIs(t, Register("sys/attr/type/mine", customType{}), types.Error{Code: "sys.reservedIdent"})
		assert.ErrorIs(t, Register("", customType{}), types.Error{Code: "sys.invalidRegistration"})
		_, ok := ResolveType("test/missing")
		assert.False(t, ok)
		_, ok = TypeIdent(customType{label: "unregistered"})
		assert.False(t, ok)
	})
}

func TestForKind(t *testing.T) {
	var s *string
	assert.Equal(t, Int, ForKind(reflect.TypeOf(int32(0))))
	assert.Equal(t, Float, ForKind(reflect.TypeOf(float32(0))))
	assert.Equal(t, String, ForKind(reflect.TypeOf(s)))
	assert.Equal(t, Bool, ForKind(reflect.TypeOf(true)))
	assert.Equal(t, Inst, ForKind(types.TimeType))
	assert.Equal(t, Strings, ForKind(reflect.TypeOf([]string{})))
	assert.Equal(t, Value, ForKind(reflect.TypeOf([]int{})))
	assert.Equal(t, Value, ForKind(reflect.TypeOf(struct{}{})))
	assert.Equal(t, Value, ForKind(reflect.TypeOf(map[string]int{})))
}

type status string

type age uint8

type flag bool

type labels []string

func TestNamedKinds(t *testing.T) {
	cases := []struct {
		name     string
		typ      types.Type
		raw      any
		expected any
	}{
		{"string", String, status("open"), types.String("open")},
		{"int", Int, age(48), types.Int(48)},
		{"int from named string", Int, status("7"), types.Int(7)},
		{"float", Float, age(2), types.Float(2)},
		{"bool", Bool, flag(true), types.Bool(true)},
		{"strings", Strings, labels{"a", "b"}, types.Strings{"a", "b"}},
		{"string from int", String, age(3), types.String("3")},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			value, err := c.typ.Cast(c.raw)
			assert.NoError(t, err)
			assert.Equal(t, c.expected, value)
		})
	}

	deserializer := Strings.(types.Deserializer)
	value, err := deserializer.Deserialize(status("a,b"))
	assert.NoError(t, err)
	assert.Equal(t, types.Strings{"a", "b"}, value)

	_, err = Int.Cast(labels{"a"})
	assert.ErrorIs(t, err, types.Error{Code: "sys.invalidCast"})
	_, err = String.Cast(types.Strings{"a"})
	assert.ErrorIs(t, err, types.Error{Code: "sys.invalidCast"})
}
