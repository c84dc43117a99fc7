package attribute

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dball/fieldstate/internal/sys"
	. "github.com/dball/fieldstate/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleAttributes() map[string]*Attribute {
	base := FromDatabase("foo", "1", sys.Int)
	return map[string]*Attribute{
		"from database":          base,
		"from user":              base.WithValueFromUser("2"),
		"with cast value":        WithCastValue("foo", "3", sys.String),
		"uninitialized":          Uninitialized("foo", sys.Int),
		"default without origin": UserProvidedDefault("foo", Eager("4"), sys.Int, nil),
		"default with origin":    UserProvidedDefault("foo", Eager("4"), sys.Int, base),
		"deferred default":       UserProvidedDefault("foo", Deferred(func() any { return "5" }), sys.String, nil),
		"untyped":                FromDatabase("foo", "6", nil),
		"cast int":               WithCastValue("foo", Int(3), sys.Int),
		"cast float":             WithCastValue("foo", Float(2), sys.Float),
		"cast strings":           WithCastValue("foo", Strings{"a", "b"}, sys.Strings),
		"cast inst":              WithCastValue("foo", Inst(time.Date(2023, 2, 1, 12, 30, 0, 0, time.UTC)), sys.Inst),
		"database float":         FromDatabase("foo", 2.5, sys.Float),
		"database bool":          FromDatabase("foo", true, sys.Bool),
		"user cast value":        FromDatabase("foo", "a,b", sys.Strings).WithValueFromUser(Strings{"a", "c"}),
	}
}

func assertSameAttribute(t *testing.T, expected *Attribute, actual *Attribute) {
	assert.Equal(t, expected.Name(), actual.Name())
	assert.True(t, SameType(expected.Type(), actual.Type()))
	assert.Equal(t, expected.ValueBeforeTypeCast(), actual.ValueBeforeTypeCast())
	assert.Equal(t, expected.Kind(), actual.Kind())
	assert.True(t, expected.Equal(actual))
}

func TestCompactForm(t *testing.T) {
	for name, attr := range sampleAttributes() {
		attr := attr
		t.Run(name, func(t *testing.T) {
			loaded, err := Load(attr.Dump())
			require.NoError(t, err)
			assertSameAttribute(t, attr, loaded)
			assert.False(t, loaded.HasBeenRead())
		})
	}

	t.Run("tuple shapes", func(t *testing.T) {
		assert.Equal(t, []any{Name("foo"), sys.Int}, Uninitialized("foo", sys.Int).Dump())
		base := FromDatabase("foo", "1", sys.Int)
		assert.Equal(t,
			[]any{Name("foo"), sys.Int, "2", []any{1, []any{Name("foo"), sys.Int, "1", []any{2, nil}}}},
			base.WithValueFromUser("2").Dump())
	})

	t.Run("lineage survives", func(t *testing.T) {
		attr := FromDatabase("foo", "1", sys.Int).WithValueFromUser("2").WithValueFromUser("3")
		loaded, err := Load(attr.Dump())
		require.NoError(t, err)
		assert.Equal(t, "1", loaded.OriginalValueBeforeTypeCast())
		changed, err := loaded.IsChanged()
		assert.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("originals may be attributes", func(t *testing.T) {
		original := FromDatabase("foo", "1", sys.Int)
		loaded, err := Load([]any{"foo", sys.Int, "2", []any{1, original}})
		require.NoError(t, err)
		assert.Same(t, original, loaded.OriginalAttribute())
	})

	t.Run("nil source is uninitialized", func(t *testing.T) {
		loaded, err := Load([]any{"foo", sys.Int, nil, nil})
		require.NoError(t, err)
		assert.False(t, loaded.IsInitialized())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Load([]any{"foo", sys.Int, "1", []any{1, nil}})
		assert.ErrorIs(t, err, Error{Code: "attribute.missingOriginal"})
		_, err = Load([]any{"foo", sys.Int, "1", []any{9, nil}})
		assert.ErrorIs(t, err, Error{Code: "attribute.unrecognizedSource"})
		_, err = Load([]any{"foo", sys.Int, "1"})
		assert.ErrorIs(t, err, Error{Code: "attribute.malformedTuple"})
		_, err = Load([]any{"foo", "int"})
		assert.ErrorIs(t, err, Error{Code: "attribute.notType"})
		_, err = Load([]any{"foo", sys.Int, "1", []any{1, "bar"}})
		assert.ErrorIs(t, err, Error{Code: "attribute.notAttribute"})
		loaded, err := Load([]any{"foo", sys.Int, "1", []any{4, nil}})
		assert.NoError(t, err)
		assert.Equal(t, KindUserProvidedDefault, loaded.Kind())
		assert.Nil(t, loaded.OriginalAttribute())
	})
}

func TestJSONForm(t *testing.T) {
	for name, attr := range sampleAttributes() {
		attr := attr
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(attr)
			require.NoError(t, err)
			var loaded Attribute
			err = json.Unmarshal(data, &loaded)
			require.NoError(t, err)
			assertSameAttribute(t, attr, &loaded)
		})
	}

	t.Run("encoding", func(t *testing.T) {
		data, err := json.Marshal(FromDatabase("foo", "1", sys.Int).WithValueFromUser("2"))
		require.NoError(t, err)
		assert.JSONEq(t, `["foo","sys/attr/type/int","2",[1,["foo","sys/attr/type/int","1",[2,null]]]]`, string(data))
	})

	t.Run("cast values are marked", func(t *testing.T) {
		data, err := json.Marshal(WithCastValue("foo", Strings{"a", "b"}, sys.Strings))
		require.NoError(t, err)
		assert.JSONEq(t, `["foo","sys/attr/type/strings",["a","b"],[3,null,true]]`, string(data))

		var loaded Attribute
		require.NoError(t, json.Unmarshal(data, &loaded))
		assert.Equal(t, Strings{"a", "b"}, loaded.ValueBeforeTypeCast())
		assert.False(t, loaded.HasBeenRead())
		value, err := loaded.Value()
		assert.NoError(t, err)
		assert.Equal(t, Strings{"a", "b"}, value)
	})

	t.Run("numbers keep their value", func(t *testing.T) {
		attr := FromDatabase("foo", 1, sys.Int)
		data, err := json.Marshal(attr)
		require.NoError(t, err)
		var loaded Attribute
		require.NoError(t, json.Unmarshal(data, &loaded))
		assert.Equal(t, int64(1), loaded.ValueBeforeTypeCast())
		assert.True(t, attr.Equal(&loaded))
		assert.Equal(t, attr.Hash(), loaded.Hash())
		changed, err := loaded.WithValueFromUser(1).IsChanged()
		assert.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("unknown types", func(t *testing.T) {
		_, err := json.Marshal(FromDatabase("foo", "1", &castCounter{}))
		assert.Error(t, err)
		var loaded Attribute
		err = json.Unmarshal([]byte(`["foo","nope/type","1",[2,null]]`), &loaded)
		assert.ErrorIs(t, err, Error{Code: "attribute.unknownType"})
	})
}

func TestStructuredForm(t *testing.T) {
	for name, attr := range sampleAttributes() {
		attr := attr
		t.Run(name, func(t *testing.T) {
			data, err := yaml.Marshal(attr)
			require.NoError(t, err)
			var loaded Attribute
			err = yaml.Unmarshal(data, &loaded)
			require.NoError(t, err)
			assertSameAttribute(t, attr, &loaded)
			assert.Equal(t, attr.HasBeenRead(), loaded.HasBeenRead())
		})
	}

	t.Run("encoding", func(t *testing.T) {
		base := FromDatabase("foo", "1", sys.Int)
		attr := base.WithValueFromUser("2")
		_, err := attr.Value()
		require.NoError(t, err)
		data, err := yaml.Marshal(attr)
		require.NoError(t, err)
		expected := `!attribute:FromUser
name: foo
type: sys/attr/type/int
value_before_type_cast: "2"
original_attribute: !attribute:FromDatabase
    name: foo
    type: sys/attr/type/int
    value_before_type_cast: "1"
value: 2
`
		assert.Equal(t, expected, string(data))
	})

	t.Run("read values are cached", func(t *testing.T) {
		attr := FromDatabase("foo", "1", sys.Int)
		_, err := attr.Value()
		require.NoError(t, err)
		data, err := yaml.Marshal(attr)
		require.NoError(t, err)
		var loaded Attribute
		require.NoError(t, yaml.Unmarshal(data, &loaded))
		assert.True(t, loaded.HasBeenRead())
		value, err := loaded.Value()
		assert.NoError(t, err)
		assert.Equal(t, Int(1), value)
	})

	t.Run("cast values are tagged", func(t *testing.T) {
		attr := FromDatabase("foo", "1", sys.Int).WithValueFromUser(Int(3))
		data, err := yaml.Marshal(attr)
		require.NoError(t, err)
		assert.Contains(t, string(data), "value_before_type_cast: !cast 3\n")
		assert.Contains(t, string(data), "value_before_type_cast: \"1\"\n")

		var loaded Attribute
		require.NoError(t, yaml.Unmarshal(data, &loaded))
		assert.Equal(t, Int(3), loaded.ValueBeforeTypeCast())
		assert.Equal(t, "1", loaded.OriginalValueBeforeTypeCast())
		changed, err := loaded.IsChanged()
		assert.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("forgotten assignments", func(t *testing.T) {
		attr, err := FromDatabase("foo", "a,b", sys.Strings).WithValueFromUser("a,c").ForgettingAssignment()
		require.NoError(t, err)
		data, err := yaml.Marshal(attr)
		require.NoError(t, err)
		var loaded Attribute
		require.NoError(t, yaml.Unmarshal(data, &loaded))
		assert.True(t, attr.Equal(&loaded))
		value, err := loaded.Value()
		require.NoError(t, err)
		changed, err := loaded.WithValueFromUser(value).IsChanged()
		assert.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("lineage survives", func(t *testing.T) {
		attr := UserProvidedDefault("foo", Eager("4"), sys.Int, FromDatabase("foo", "1", sys.Int))
		data, err := yaml.Marshal(attr)
		require.NoError(t, err)
		var loaded Attribute
		require.NoError(t, yaml.Unmarshal(data, &loaded))
		assert.Equal(t, KindUserProvidedDefault, loaded.Kind())
		assert.Equal(t, "1", loaded.OriginalValueBeforeTypeCast())
	})

	t.Run("legacy user values without originals", func(t *testing.T) {
		data := `!attribute:FromUser
name: foo
type: sys/attr/type/int
value_before_type_cast: "2"
`
		var loaded Attribute
		err := yaml.Unmarshal([]byte(data), &loaded)
		require.NoError(t, err)
		assert.Equal(t, KindUserProvidedDefault, loaded.Kind())
		assert.Nil(t, loaded.OriginalAttribute())
		assert.Equal(t, "2", loaded.ValueBeforeTypeCast())
	})

	t.Run("unrecognized tags", func(t *testing.T) {
		var loaded Attribute
		err := yaml.Unmarshal([]byte("!attribute:Bogus\nname: foo\n"), &loaded)
		assert.ErrorIs(t, err, Error{Code: "attribute.unrecognizedTag"})
		err = yaml.Unmarshal([]byte("name: foo\n"), &loaded)
		assert.ErrorIs(t, err, Error{Code: "attribute.unrecognizedTag"})
	})

	t.Run("missing names", func(t *testing.T) {
		var loaded Attribute
		err := yaml.Unmarshal([]byte("!attribute:FromDatabase\nvalue_before_type_cast: 1\n"), &loaded)
		assert.ErrorIs(t, err, Error{Code: "attribute.missingField"})
	})
}
