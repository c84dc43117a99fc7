package attrset

import (
	. "github.com/dball/fieldstate/internal/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Field is a named value.
type Field struct {
	Name  Name
	Value any
}

// Fields is an ordered projection of names to values.
type Fields []Field

// FieldsFromMap returns the fields of the map ordered by name.
func FieldsFromMap(values map[Name]any) (fields Fields) {
	names := maps.Keys(values)
	slices.Sort(names)
	fields = make(Fields, len(names))
	for i, name := range names {
		fields[i] = Field{Name: name, Value: values[name]}
	}
	return
}

// Get returns the value of the last field with the given name.
func (fields Fields) Get(name Name) (value any, ok bool) {
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].Name == name {
			value = fields[i].Value
			ok = true
			return
		}
	}
	return
}

// Names returns the names of the fields in order.
func (fields Fields) Names() (names []Name) {
	names = make([]Name, len(fields))
	for i, field := range fields {
		names[i] = field.Name
	}
	return
}
