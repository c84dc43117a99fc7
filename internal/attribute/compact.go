package attribute

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/dball/fieldstate/internal/sys"
	. "github.com/dball/fieldstate/internal/types"
)

// Dump returns the compact form of the attribute: [name, type, raw, [kind, original]]
// for populated attributes, [name, type] for uninitialized ones. Deferred raw
// values are resolved.
func (attr *Attribute) Dump() []any {
	if attr.raw == nil {
		return []any{attr.name, attr.typ}
	}
	var original any
	if attr.source.HasLineage() {
		original = attr.source.Original.Dump()
	}
	return []any{
		attr.name,
		attr.typ,
		attr.raw.Get(),
		[]any{int(attr.source.Kind), original},
	}
}

// Load builds an attribute from its compact form. Originals may be given either
// in compact form or as attributes.
func Load(tuple []any) (attr *Attribute, err error) {
	attr, err = load(tuple, resolveHandle)
	return
}

func resolveHandle(x any) (typ Type, err error) {
	if x == nil {
		return
	}
	typ, ok := x.(Type)
	if !ok {
		err = NewError("attribute.notType", "type", x)
	}
	return
}

func resolveIdent(x any) (typ Type, err error) {
	if x == nil {
		return
	}
	ident, ok := x.(string)
	if !ok {
		err = NewError("attribute.notType", "type", x)
		return
	}
	typ, ok = sys.ResolveType(ident)
	if !ok {
		err = NewError("attribute.unknownType", "type", ident)
	}
	return
}

func load(tuple []any, resolve func(any) (Type, error)) (attr *Attribute, err error) {
	n := len(tuple)
	if n != 2 && n != 4 {
		err = NewError("attribute.malformedTuple", "tuple", tuple)
		return
	}
	var name Name
	switch x := tuple[0].(type) {
	case Name:
		name = x
	case string:
		name = Name(x)
	default:
		err = NewError("attribute.malformedTuple", "name", tuple[0])
		return
	}
	typ, err := resolve(tuple[1])
	if err != nil {
		return
	}
	if n == 2 || tuple[3] == nil {
		attr = Uninitialized(name, typ)
		return
	}
	source, err := loadSource(tuple[3], resolve)
	if err != nil {
		return
	}
	attr = &Attribute{
		name:   name,
		typ:    typ,
		raw:    &RawValue{value: tuple[2]},
		source: source,
	}
	return
}

func loadSource(x any, resolve func(any) (Type, error)) (source Source, err error) {
	pair, ok := x.([]any)
	if !ok || len(pair) != 2 {
		err = NewError("attribute.malformedSource", "source", x)
		return
	}
	discriminant, ok := toInt(pair[0])
	if !ok {
		err = NewError("attribute.unrecognizedSource", "discriminant", pair[0])
		return
	}
	var original *Attribute
	switch y := pair[1].(type) {
	case nil:
	case *Attribute:
		original = y
	case []any:
		original, err = load(y, resolve)
		if err != nil {
			return
		}
	default:
		err = NewError("attribute.notAttribute", "original", pair[1])
		return
	}
	switch Kind(discriminant) {
	case KindFromUser:
		if original == nil {
			err = NewError("attribute.missingOriginal", "kind", KindFromUser)
			return
		}
		source = Source{Kind: KindFromUser, Original: original}
	case KindFromDatabase:
		source = Source{Kind: KindFromDatabase}
	case KindPreCast:
		source = Source{Kind: KindPreCast}
	case KindUserProvidedDefault:
		source = Source{Kind: KindUserProvidedDefault, Original: original}
	default:
		err = NewError("attribute.unrecognizedSource", "discriminant", pair[0])
	}
	return
}

func toInt(x any) (i int, ok bool) {
	ok = true
	switch n := x.(type) {
	case int:
		i = n
	case int64:
		i = int(n)
	case float64:
		i = int(n)
		ok = float64(i) == n
	case json.Number:
		i64, err := n.Int64()
		i = int(i64)
		ok = err == nil
	default:
		ok = false
	}
	return
}

// MarshalJSON encodes the compact form, naming the type by its registered ident.
func (attr *Attribute) MarshalJSON() (data []byte, err error) {
	tuple, err := attr.jsonTuple()
	if err != nil {
		return
	}
	data, err = json.Marshal(tuple)
	return
}

func (attr *Attribute) jsonTuple() (tuple []any, err error) {
	var ident any
	if attr.typ != nil {
		s, ok := sys.TypeIdent(attr.typ)
		if !ok {
			err = NewError("attribute.unknownType", "name", attr.name, "type", attr.typ)
			return
		}
		ident = s
	}
	if attr.raw == nil {
		tuple = []any{string(attr.name), ident}
		return
	}
	var original any
	if attr.source.HasLineage() {
		original, err = attr.source.Original.jsonTuple()
		if err != nil {
			return
		}
	}
	source := []any{int(attr.source.Kind), original}
	raw := attr.raw.Get()
	if isCastValue(raw, attr.typ) {
		source = append(source, true)
	}
	tuple = []any{string(attr.name), ident, raw, source}
	return
}

// isCastValue returns true if the raw value is of the go type of the type's cast
// values. Serialized forms mark such raw values so that they decode to that type.
func isCastValue(raw any, typ Type) bool {
	valueType, ok := typ.(ValueType)
	return ok && raw != nil && reflect.TypeOf(raw) == valueType.GoType()
}

// UnmarshalJSON decodes the compact form. Raw values marked as cast values
// decode to the type's go type; otherwise numbers are decoded as int64 when
// integral, float64 otherwise.
func (attr *Attribute) UnmarshalJSON(data []byte) (err error) {
	var parts []json.RawMessage
	err = json.Unmarshal(data, &parts)
	if err != nil {
		return
	}
	tuple := make([]any, len(parts))
	for i := 0; i < len(parts) && i < 2; i++ {
		tuple[i], err = decodeJSON(parts[i])
		if err != nil {
			return
		}
	}
	if len(parts) == 4 {
		var typed bool
		tuple[3], typed, err = decodeJSONSource(parts[3])
		if err != nil {
			return
		}
		tuple[2], err = decodeJSONRaw(parts[2], tuple[1], typed)
		if err != nil {
			return
		}
	}
	loaded, err := load(tuple, resolveIdent)
	if err != nil {
		return
	}
	*attr = *loaded
	return
}

func decodeJSON(data json.RawMessage) (x any, err error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	err = decoder.Decode(&x)
	if err != nil {
		return
	}
	x = normalizeNumbers(x)
	return
}

func isJSONArray(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// decodeJSONSource decodes [kind, original] with an optional cast value mark.
// Sources of any other shape are decoded as is for load to reject.
func decodeJSONSource(data json.RawMessage) (source any, typed bool, err error) {
	var pair []json.RawMessage
	if !isJSONArray(data) || json.Unmarshal(data, &pair) != nil || len(pair) < 2 || len(pair) > 3 {
		source, err = decodeJSON(data)
		return
	}
	if len(pair) == 3 {
		err = json.Unmarshal(pair[2], &typed)
		if err != nil {
			return
		}
	}
	kind, err := decodeJSON(pair[0])
	if err != nil {
		return
	}
	var original any
	if isJSONArray(pair[1]) {
		decoded := &Attribute{}
		err = decoded.UnmarshalJSON(pair[1])
		original = decoded
	} else {
		original, err = decodeJSON(pair[1])
	}
	if err != nil {
		return
	}
	source = []any{kind, original}
	return
}

func decodeJSONRaw(data json.RawMessage, ident any, typed bool) (raw any, err error) {
	if !typed {
		return decodeJSON(data)
	}
	typ, err := resolveIdent(ident)
	if err != nil {
		return
	}
	valueType, ok := typ.(ValueType)
	if !ok {
		return decodeJSON(data)
	}
	ptr := reflect.New(valueType.GoType())
	err = json.Unmarshal(data, ptr.Interface())
	if err != nil {
		return
	}
	raw = ptr.Elem().Interface()
	return
}

func normalizeNumbers(x any) any {
	switch y := x.(type) {
	case json.Number:
		i, err := y.Int64()
		if err == nil {
			return i
		}
		f, err := y.Float64()
		if err == nil {
			return f
		}
		return string(y)
	case []any:
		for i, elt := range y {
			y[i] = normalizeNumbers(elt)
		}
		return y
	case map[string]any:
		for k, elt := range y {
			y[k] = normalizeNumbers(elt)
		}
		return y
	}
	return x
}
