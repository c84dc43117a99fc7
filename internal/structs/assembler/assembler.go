// Package assembler provides for the construction of structs from sets of attributes.
package assembler

import (
	"reflect"
	"time"

	"github.com/dball/fieldstate/internal/attrset"
	"github.com/dball/fieldstate/internal/structs/models"
	. "github.com/dball/fieldstate/internal/types"
)

// Assembler sets the attribute fields of structs from the cast values of sets.
type Assembler struct {
	analyzer models.Analyzer
}

// NewAssembler returns an assembler using the given analyzer.
func NewAssembler(analyzer models.Analyzer) *Assembler {
	return &Assembler{analyzer: analyzer}
}

// AssembleInto sets each attribute field of the struct the target points to. Fields
// whose attributes are absent or uninitialized are set to their zero values.
// Reading the fields casts the attributes; cast errors are returned as is.
func (a *Assembler) AssembleInto(target any, set *attrset.Set) (err error) {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		err = NewError("assembler.targetNotPointer")
		return
	}
	value := ptr.Elem()
	if value.Kind() != reflect.Struct {
		err = NewError("assembler.targetValueNotStruct")
		return
	}
	model, err := a.analyzer.Analyze(value.Type())
	if err != nil {
		return
	}
	for _, attr := range model.AttrFields {
		v, _, fetchErr := set.FetchValue(attr.Name)
		if fetchErr != nil {
			err = fetchErr
			return
		}
		field := value.Field(attr.Index)
		if !setField(field, v) {
			err = NewError("assembler.invalidValue", "name", attr.Name, "type", field.Type(), "value", v)
			return
		}
	}
	return
}

// Assemble returns a new struct assembled from the set.
func Assemble[T any](a *Assembler, set *attrset.Set) (entity T, err error) {
	err = a.AssembleInto(&entity, set)
	return
}

func setField(field reflect.Value, v any) (ok bool) {
	if v == nil {
		field.Set(reflect.Zero(field.Type()))
		return true
	}
	if field.Kind() == reflect.Pointer {
		ptr := reflect.New(field.Type().Elem())
		if !setField(ptr.Elem(), v) {
			return
		}
		field.Set(ptr)
		return true
	}
	switch x := v.(type) {
	case Int:
		switch field.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if field.OverflowInt(int64(x)) {
				return
			}
			field.SetInt(int64(x))
			return true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if x < 0 || field.OverflowUint(uint64(x)) {
				return
			}
			field.SetUint(uint64(x))
			return true
		case reflect.Float32, reflect.Float64:
			field.SetFloat(float64(x))
			return true
		}
	case Float:
		switch field.Kind() {
		case reflect.Float32, reflect.Float64:
			field.SetFloat(float64(x))
			return true
		}
	case String:
		if field.Kind() == reflect.String {
			field.SetString(string(x))
			return true
		}
	case Bool:
		if field.Kind() == reflect.Bool {
			field.SetBool(bool(x))
			return true
		}
	case Inst:
		if field.Type() == TimeType {
			field.Set(reflect.ValueOf(time.Time(x)))
			return true
		}
	case Strings:
		if field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String {
			slice := reflect.MakeSlice(field.Type(), len(x), len(x))
			for i, s := range x {
				slice.Index(i).SetString(s)
			}
			field.Set(slice)
			return true
		}
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(field.Type()):
		field.Set(rv)
		return true
	case rv.Type().ConvertibleTo(field.Type()) && rv.Kind() == field.Kind():
		field.Set(rv.Convert(field.Type()))
		return true
	}
	return
}
