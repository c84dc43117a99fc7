// Package models provides models of structs with attribute bindings.
package models

import (
	"reflect"
	"strings"
	"sync"

	"github.com/dball/fieldstate/internal/sys"
	. "github.com/dball/fieldstate/internal/types"
)

// StructModel models a struct that has fields bound to attributes, whose instances
// correspond to records.
type StructModel struct {
	// Type is the struct type, whose kind must be a struct.
	Type reflect.Type
	// AttrFields are the fields bound to attributes, in field order.
	AttrFields []AttrFieldModel
	index      map[Name]int
}

// Attr returns the attribute field model with the given name, if any.
func (model StructModel) Attr(name Name) (attr AttrFieldModel, ok bool) {
	i, ok := model.index[name]
	if ok {
		attr = model.AttrFields[i]
	}
	return
}

// Primary returns the field model of the primary attribute, if any.
func (model StructModel) Primary() (attr AttrFieldModel, ok bool) {
	for _, a := range model.AttrFields {
		if a.Primary {
			attr = a
			ok = true
			break
		}
	}
	return
}

// AttrFieldModel models a field bound to an attribute.
type AttrFieldModel struct {
	// Name is the name of the attribute.
	Name Name
	// Index is the position of the field in the struct.
	Index int
	// FieldType is the field's go type.
	FieldType reflect.Type
	// Type is the attribute's type. This may not be nil.
	Type Type
	// IgnoreEmpty indicates that zero values are treated as absent.
	IgnoreEmpty bool
	// Primary indicates that the attribute identifies the record.
	Primary bool
}

// Analyzer builds struct models.
type Analyzer interface {
	Analyze(typ reflect.Type) (model StructModel, err error)
}

type analyzerFunc func(typ reflect.Type) (StructModel, error)

func (f analyzerFunc) Analyze(typ reflect.Type) (StructModel, error) {
	return f(typ)
}

// cachingAnalyzer remembers the models of the types it has analyzed. Failed
// analyses are not cached.
type cachingAnalyzer struct {
	analyzer Analyzer
	lock     sync.RWMutex
	models   map[reflect.Type]StructModel
}

// BuildCachingAnalyzer returns an analyzer that analyzes each type once. It is
// safe for concurrent use.
func BuildCachingAnalyzer() Analyzer {
	return &cachingAnalyzer{analyzer: NewAnalyzer(), models: map[reflect.Type]StructModel{}}
}

// NewAnalyzer returns an analyzer that analyzes types on every call.
func NewAnalyzer() Analyzer {
	return analyzerFunc(Analyze)
}

func (analyzer *cachingAnalyzer) Analyze(typ reflect.Type) (model StructModel, err error) {
	analyzer.lock.RLock()
	model, ok := analyzer.models[typ]
	analyzer.lock.RUnlock()
	if ok {
		return
	}
	model, err = analyzer.analyzer.Analyze(typ)
	if err != nil {
		return
	}
	analyzer.lock.Lock()
	analyzer.models[typ] = model
	analyzer.lock.Unlock()
	return
}

// Analyze builds a struct model for the given type. Pointers to structs are
// analyzed as their structs. Fields without attr tags are ignored.
func Analyze(typ reflect.Type) (model StructModel, err error) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		err = NewError("models.notStruct", "type", typ)
		return
	}
	model.Type = typ
	n := typ.NumField()
	model.AttrFields = make([]AttrFieldModel, 0, n)
	model.index = make(map[Name]int, n)
	hasPrimary := false
	for i := 0; i < n; i++ {
		field := typ.Field(i)
		attr, ok, fieldErr := parseAttrField(field)
		if fieldErr != nil {
			err = fieldErr
			return
		}
		if !ok {
			continue
		}
		attr.Index = i
		if _, dup := model.index[attr.Name]; dup {
			err = NewError("models.duplicateName", "type", typ, "name", attr.Name)
			return
		}
		if attr.Primary {
			if hasPrimary {
				err = NewError("models.duplicatePrimary", "type", typ, "name", attr.Name)
				return
			}
			hasPrimary = true
		}
		model.index[attr.Name] = len(model.AttrFields)
		model.AttrFields = append(model.AttrFields, attr)
	}
	return
}

func parseAttrField(field reflect.StructField) (attr AttrFieldModel, ok bool, err error) {
	tag, ok := field.Tag.Lookup("attr")
	if !ok {
		return
	}
	if !field.IsExported() {
		err = NewError("models.unexportedField", "tag", tag, "field", field.Name)
		return
	}
	attr, err = parseAttrTag(tag)
	if err != nil {
		return
	}
	attr.FieldType = field.Type
	if attr.Type != nil {
		return
	}
	kind := field.Type.Kind()
	if kind == reflect.Pointer {
		kind = field.Type.Elem().Kind()
	}
	switch kind {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128, reflect.Pointer:
		err = NewError("models.invalidType", "tag", tag, "type", field.Type, "kind", kind)
		return
	}
	attr.Type = sys.ForKind(field.Type)
	return
}

func parseAttrTag(tag string) (attr AttrFieldModel, err error) {
	parts := strings.Split(tag, ",")
	if parts[0] == "" {
		err = NewError("models.missingName", "tag", tag)
		return
	}
	attr.Name = Name(parts[0])
	n := len(parts)
	for i := 1; i < n; i++ {
		part := parts[i]
		switch part {
		case "primary":
			attr.Primary = true
		case "ignoreempty":
			attr.IgnoreEmpty = true
		default:
			ident, ok := strings.CutPrefix(part, "type=")
			if !ok {
				err = NewError("models.invalidDirective", "tag", tag)
				return
			}
			attr.Type, ok = sys.ResolveType(ident)
			if !ok {
				err = NewError("models.unknownType", "tag", tag, "type", ident)
				return
			}
		}
	}
	return
}
