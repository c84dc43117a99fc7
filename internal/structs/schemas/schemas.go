// Package schemas derives attribute types from structs.
package schemas

import (
	"reflect"

	"github.com/dball/fieldstate/internal/attrset"
	"github.com/dball/fieldstate/internal/structs/models"
)

// Analyze returns the names and types of the attribute fields of the struct
// type, in field order.
func Analyze(analyzer models.Analyzer, typ reflect.Type) (types []attrset.TypePair, err error) {
	model, err := analyzer.Analyze(typ)
	if err != nil {
		return
	}
	types = make([]attrset.TypePair, len(model.AttrFields))
	for i, field := range model.AttrFields {
		types[i] = attrset.TypePair{Name: field.Name, Type: field.Type}
	}
	return
}
