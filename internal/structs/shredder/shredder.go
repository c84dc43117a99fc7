// Package shredder deconstructs structs into named raw values.
package shredder

import (
	"reflect"

	"github.com/dball/fieldstate/internal/attrset"
	"github.com/dball/fieldstate/internal/structs/models"
	. "github.com/dball/fieldstate/internal/types"
)

// Shredder shreds structs into fields.
type Shredder interface {
	// Shred returns the values of the attribute fields of the struct, or the
	// struct a pointer points to, in field order.
	Shred(x any) (fields attrset.Fields, err error)
}

type shredder struct {
	analyzer models.Analyzer
}

// NewShredder returns a new shredder.
func NewShredder(analyzer models.Analyzer) Shredder {
	return &shredder{analyzer: analyzer}
}

func (s *shredder) Shred(x any) (fields attrset.Fields, err error) {
	if x == nil {
		err = NewError("shredder.nilStruct")
		return
	}
	value := reflect.ValueOf(x)
	switch value.Kind() {
	case reflect.Struct:
	case reflect.Pointer:
		if value.IsNil() {
			err = NewError("shredder.nilStruct")
			return
		}
		value = value.Elem()
		if value.Kind() != reflect.Struct {
			err = NewError("shredder.invalidStruct", "type", value.Type())
			return
		}
	default:
		err = NewError("shredder.invalidStruct", "type", value.Type())
		return
	}
	model, err := s.analyzer.Analyze(value.Type())
	if err != nil {
		return
	}
	fields = make(attrset.Fields, 0, len(model.AttrFields))
	for _, attr := range model.AttrFields {
		fieldValue := value.Field(attr.Index)
		if attr.IgnoreEmpty && fieldValue.IsZero() {
			continue
		}
		fields = append(fields, attrset.Field{Name: attr.Name, Value: getFieldValue(fieldValue)})
	}
	return
}

// getFieldValue returns the raw value of a field. Nil pointers are nil, other
// pointers are followed, slices are copied.
func getFieldValue(fieldValue reflect.Value) (val any) {
	switch fieldValue.Kind() {
	case reflect.Pointer:
		if fieldValue.IsNil() {
			return
		}
		val = getFieldValue(fieldValue.Elem())
	case reflect.Slice:
		if fieldValue.IsNil() {
			return
		}
		copied := reflect.MakeSlice(fieldValue.Type(), fieldValue.Len(), fieldValue.Len())
		reflect.Copy(copied, fieldValue)
		val = copied.Interface()
	default:
		val = fieldValue.Interface()
	}
	return
}
