// Package sys provides the system types and their registry.
package sys

import (
	"reflect"
	"strings"

	"github.com/dball/fieldstate/internal/types"
)

const (
	AttrTypeValue   = "sys/attr/type/value"
	AttrTypeInt     = "sys/attr/type/int"
	AttrTypeFloat   = "sys/attr/type/float"
	AttrTypeString  = "sys/attr/type/string"
	AttrTypeBool    = "sys/attr/type/bool"
	AttrTypeInst    = "sys/attr/type/inst"
	AttrTypeStrings = "sys/attr/type/strings"
)

// These are the system types.
var (
	Value   types.Type = valueType{}
	Int     types.Type = intType{}
	Float   types.Type = floatType{}
	String  types.Type = stringType{}
	Bool    types.Type = boolType{}
	Inst    types.Type = instType{}
	Strings types.Type = stringsType{}
)

var registry = newRegistry()

func newRegistry() (r *typeRegistry) {
	r = &typeRegistry{
		byIdent: make(map[string]types.Type, 16),
		idents:  make([]registered, 0, 16),
	}
	r.register(AttrTypeValue, Value)
	r.register(AttrTypeInt, Int)
	r.register(AttrTypeFloat, Float)
	r.register(AttrTypeString, String)
	r.register(AttrTypeBool, Bool)
	r.register(AttrTypeInst, Inst)
	r.register(AttrTypeStrings, Strings)
	return
}

type registered struct {
	ident string
	typ   types.Type
}

// typeRegistry resolves types to idents and back, so that serialized attributes
// can name their types.
type typeRegistry struct {
	byIdent map[string]types.Type
	idents  []registered
}

func (r *typeRegistry) register(ident string, typ types.Type) (err error) {
	if ident == "" || typ == nil {
		err = types.NewError("sys.invalidRegistration", "ident", ident, "type", typ)
		return
	}
	extant, ok := r.byIdent[ident]
	if ok {
		if !types.SameType(extant, typ) {
			err = types.NewError("sys.duplicateIdent", "ident", ident)
		}
		return
	}
	r.byIdent[ident] = typ
	r.idents = append(r.idents, registered{ident: ident, typ: typ})
	return
}

func (r *typeRegistry) ident(typ types.Type) (ident string, ok bool) {
	for _, reg := range r.idents {
		if types.SameType(reg.typ, typ) || types.SameType(typ, reg.typ) {
			ident = reg.ident
			ok = true
			return
		}
	}
	return
}

// Register makes a type available to serialized forms under the given ident.
// Idents beginning with sys/ are reserved. Register types during init; the
// registry is not locked.
func Register(ident string, typ types.Type) (err error) {
	if !ValidUserIdent(ident) {
		err = types.NewError("sys.reservedIdent", "ident", ident)
		return
	}
	err = registry.register(ident, typ)
	return
}

// ResolveType returns the type registered under the ident, if any.
func ResolveType(ident string) (typ types.Type, ok bool) {
	typ, ok = registry.byIdent[ident]
	return
}

// TypeIdent returns the ident under which the type is registered, if any.
func TypeIdent(typ types.Type) (ident string, ok bool) {
	ident, ok = registry.ident(typ)
	return
}

// ForKind returns the system type for values of the given go type. Unknown go
// types get the value type, which does not cast.
func ForKind(typ reflect.Type) (attrType types.Type) {
	switch typ.Kind() {
	case reflect.Bool:
		attrType = Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		attrType = Int
	case reflect.String:
		attrType = String
	case reflect.Float32, reflect.Float64:
		attrType = Float
	case reflect.Struct:
		if types.TimeType == typ {
			attrType = Inst
		} else {
			attrType = Value
		}
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.String {
			attrType = Strings
		} else {
			attrType = Value
		}
	case reflect.Pointer:
		attrType = ForKind(typ.Elem())
	default:
		attrType = Value
	}
	return
}

// ValidUserIdent returns true if the ident may be registered by callers.
func ValidUserIdent(ident string) bool {
	return !strings.HasPrefix(ident, "sys/")
}
