package attrset

import (
	"encoding/json"
	"testing"

	"github.com/dball/fieldstate/internal/attribute"
	"github.com/dball/fieldstate/internal/sys"
	. "github.com/dball/fieldstate/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func assignedSet(t *testing.T) *Set {
	set := New(
		attribute.FromDatabase("id", "1", sys.Int),
		attribute.FromDatabase("name", "ann", sys.String),
		attribute.Uninitialized("born", sys.Inst),
	)
	require.NoError(t, set.WriteFromUser("name", "bob"))
	_, err := set.Get("id").Value()
	require.NoError(t, err)
	return set
}

func TestCompactForm(t *testing.T) {
	set := assignedSet(t)
	loaded, err := Load(set.Dump())
	require.NoError(t, err)
	assert.True(t, set.Equal(loaded))
	assert.Equal(t, []Name{"id", "name", "born"}, loaded.ValuesBeforeTypeCast().Names())
	assert.Equal(t, "ann", loaded.Get("name").OriginalValueBeforeTypeCast())

	t.Run("attributes as elements", func(t *testing.T) {
		attr := attribute.FromDatabase("x", "1", sys.Int)
		loaded, err := Load([]any{attr})
		require.NoError(t, err)
		assert.Same(t, attr, loaded.Get("x"))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Load([]any{"id"})
		assert.ErrorIs(t, err, Error{Code: "attrset.malformedAttributes"})
		_, err = Load([]any{[]any{"id", sys.Int, "1", []any{1, nil}}})
		assert.ErrorIs(t, err, Error{Code: "attribute.missingOriginal"})
	})
}

func TestJSONForm(t *testing.T) {
	set := assignedSet(t)
	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		["id","sys/attr/type/int","1",[2,null]],
		["name","sys/attr/type/string","bob",[1,["name","sys/attr/type/string","ann",[2,null]]]],
		["born","sys/attr/type/inst"]
	]`, string(data))

	loaded := &Set{}
	require.NoError(t, json.Unmarshal(data, loaded))
	assert.True(t, set.Equal(loaded))
	assert.Equal(t, []Name{"id", "name", "born"}, loaded.ValuesBeforeTypeCast().Names())

	err = json.Unmarshal([]byte(`[null]`), loaded)
	assert.ErrorIs(t, err, Error{Code: "attrset.malformedAttributes"})
}

func TestStructuredForm(t *testing.T) {
	set := assignedSet(t)
	data, err := yaml.Marshal(set)
	require.NoError(t, err)

	var loaded Set
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.True(t, set.Equal(&loaded))
	assert.Equal(t, []Name{"id", "name", "born"}, loaded.ValuesBeforeTypeCast().Names())
	assert.Equal(t, []Name{"id"}, loaded.Accessed())
	assert.Equal(t, "ann", loaded.Get("name").OriginalValueBeforeTypeCast())

	t.Run("malformed", func(t *testing.T) {
		var loaded Set
		err := yaml.Unmarshal([]byte("fields: {}\n"), &loaded)
		assert.ErrorIs(t, err, Error{Code: "attrset.malformedAttributes"})
		err = yaml.Unmarshal([]byte("attributes:\n  id: !attribute:Bogus\n    name: id\n"), &loaded)
		assert.ErrorIs(t, err, Error{Code: "attribute.unrecognizedTag"})
	})

	t.Run("legacy payloads", func(t *testing.T) {
		data := `attributes:
  name: !attribute:FromUser
    name: name
    type: sys/attr/type/string
    value_before_type_cast: bob
`
		var loaded Set
		require.NoError(t, yaml.Unmarshal([]byte(data), &loaded))
		assert.Equal(t, attribute.KindUserProvidedDefault, loaded.Get("name").Kind())
	})
}

// staticMaterializer materializes a fixed list of pairs.
type staticMaterializer []Pair

func (m staticMaterializer) Materialize() ([]Pair, error) {
	return m, nil
}

func TestInitWith(t *testing.T) {
	a := attribute.FromDatabase("a", "1", sys.Int)
	b := attribute.FromDatabase("b", "2", sys.Int)

	set := New(attribute.FromDatabase("old", "0", sys.Int))
	require.NoError(t, set.InitWith([]Pair{{Name: "b", Attr: b}, {Name: "a", Attr: a}}))
	assert.Equal(t, []Name{"b", "a"}, set.Keys())

	require.NoError(t, set.InitWith(map[Name]*Attribute{"b": b, "a": a}))
	assert.Equal(t, []Name{"a", "b"}, set.Keys())

	require.NoError(t, set.InitWith(staticMaterializer{{Name: "b", Attr: b}}))
	assert.Equal(t, []Name{"b"}, set.Keys())

	err := set.InitWith("nope")
	assert.ErrorIs(t, err, Error{Code: "attrset.notAttributes"})
	assert.Equal(t, []Name{"b"}, set.Keys())
}
