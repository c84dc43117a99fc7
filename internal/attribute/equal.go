package attribute

import (
	"hash/maphash"
	"math"
	"reflect"
	"strconv"

	"github.com/dball/fieldstate/internal/sys"
	. "github.com/dball/fieldstate/internal/types"
)

var seed = maphash.MakeSeed()

// maxHashDepth bounds the walk of raw values, which may be cyclic.
const maxHashDepth = 16

// Equal returns true if both attributes have the same kind of source, name, raw
// value and type. Lineage, the cast cache and read status are not considered.
func (attr *Attribute) Equal(other *Attribute) bool {
	if attr == nil || other == nil {
		return attr == other
	}
	if attr == other {
		return true
	}
	return attr.source.Kind == other.source.Kind &&
		attr.name == other.name &&
		SameType(attr.typ, other.typ) &&
		valuesEqual(attr.ValueBeforeTypeCast(), other.ValueBeforeTypeCast())
}

// Hash returns a hash of the components considered by Equal. Types are hashed
// by ident only, since handles of different go types may be the same type.
func (attr *Attribute) Hash() uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteByte(byte(attr.source.Kind))
	h.WriteString(string(attr.name))
	h.WriteByte(0)
	ident, ok := sys.TypeIdent(attr.typ)
	if ok {
		h.WriteString(ident)
	}
	h.WriteByte(0)
	writeRaw(&h, reflect.ValueOf(attr.ValueBeforeTypeCast()), 0)
	return h.Sum64()
}

// valuesEqual compares raw values. Unnamed numbers compare by value whatever
// their width, and unnamed lists and maps compare element by element, so raw
// values compare equal after a trip through the serialized forms. Values of
// named types must have the same type and be deeply equal.
func valuesEqual(v1 any, v2 any) bool {
	return rawEqual(reflect.ValueOf(v1), reflect.ValueOf(v2))
}

func rawEqual(r1, r2 reflect.Value) bool {
	r1, r2 = elem(r1), elem(r2)
	if !r1.IsValid() || !r2.IsValid() {
		return !r1.IsValid() && !r2.IsValid()
	}
	t1, t2 := r1.Type(), r2.Type()
	if isNamed(t1) || isNamed(t2) {
		return t1 == t2 && reflect.DeepEqual(r1.Interface(), r2.Interface())
	}
	switch {
	case isNumber(r1) && isNumber(r2):
		return canonicalNumber(r1) == canonicalNumber(r2)
	case r1.Kind() == reflect.Pointer && r2.Kind() == reflect.Pointer:
		if r1.IsNil() || r2.IsNil() {
			return r1.IsNil() && r2.IsNil()
		}
		return rawEqual(r1.Elem(), r2.Elem())
	case isList(r1) && isList(r2):
		if r1.Len() != r2.Len() {
			return false
		}
		for i := 0; i < r1.Len(); i++ {
			if !rawEqual(r1.Index(i), r2.Index(i)) {
				return false
			}
		}
		return true
	case r1.Kind() == reflect.Map && r2.Kind() == reflect.Map:
		if t1.Key() != t2.Key() || r1.Len() != r2.Len() {
			return false
		}
		iter := r1.MapRange()
		for iter.Next() {
			v2 := r2.MapIndex(iter.Key())
			if !v2.IsValid() || !rawEqual(iter.Value(), v2) {
				return false
			}
		}
		return true
	}
	return t1 == t2 && reflect.DeepEqual(r1.Interface(), r2.Interface())
}

// writeRaw writes the parts of a raw value that rawEqual and reflect.DeepEqual
// agree on: equal values always write the same bytes.
func writeRaw(h *maphash.Hash, v reflect.Value, depth int) {
	if depth > maxHashDepth {
		return
	}
	v = elem(v)
	if isNumber(v) {
		h.WriteByte('#')
		h.WriteString(canonicalNumber(v))
		return
	}
	switch v.Kind() {
	case reflect.Invalid:
		h.WriteByte('n')
	case reflect.Pointer:
		if v.IsNil() {
			h.WriteByte('n')
			return
		}
		writeRaw(h, v.Elem(), depth+1)
	case reflect.String:
		h.WriteByte('s')
		h.WriteString(v.String())
		h.WriteByte(0)
	case reflect.Bool:
		h.WriteByte('b')
		h.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Slice, reflect.Array:
		h.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			writeRaw(h, v.Index(i), depth+1)
		}
		h.WriteByte(']')
	case reflect.Map:
		h.WriteByte('{')
		h.WriteString(strconv.Itoa(v.Len()))
	case reflect.Struct:
		h.WriteByte('(')
		for i := 0; i < v.NumField(); i++ {
			writeRaw(h, v.Field(i), depth+1)
		}
		h.WriteByte(')')
	default:
		h.WriteString(v.Kind().String())
	}
}

func elem(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return v
}

func isNamed(t reflect.Type) bool {
	return t.PkgPath() != ""
}

func isNumber(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isList(v reflect.Value) bool {
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

// canonicalNumber formats integral numbers as integers whatever their kind.
func canonicalNumber(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	}
	return strconv.FormatInt(v.Int(), 10)
}
