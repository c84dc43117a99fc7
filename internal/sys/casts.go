package sys

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dball/fieldstate/internal/types"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// number converts any go or system numeric value, including values of named
// numeric kinds, to the given numeric type.
func number[N constraints.Integer | constraints.Float](raw any) (n N, ok bool) {
	ok = true
	switch x := raw.(type) {
	case int:
		n = N(x)
	case int8:
		n = N(x)
	case int16:
		n = N(x)
	case int32:
		n = N(x)
	case int64:
		n = N(x)
	case uint:
		n = N(x)
	case uint8:
		n = N(x)
	case uint16:
		n = N(x)
	case uint32:
		n = N(x)
	case uint64:
		n = N(x)
	case float32:
		n = N(x)
	case float64:
		n = N(x)
	case types.Int:
		n = N(x)
	case types.Float:
		n = N(x)
	default:
		v := reflect.ValueOf(raw)
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n = N(v.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n = N(v.Uint())
		case reflect.Float32, reflect.Float64:
			n = N(v.Float())
		default:
			ok = false
		}
	}
	return
}

// underlying returns the value of a named string, bool or string slice kind as
// its unnamed go type.
func underlying(raw any) (base any, ok bool) {
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.String:
		base = v.String()
	case reflect.Bool:
		base = v.Bool()
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.String {
			return
		}
		list := make([]string, v.Len())
		for i := range list {
			list[i] = v.Index(i).String()
		}
		base = list
	default:
		return
	}
	ok = v.Type() != reflect.TypeOf(base)
	return
}

func invalidCast(typ string, raw any) error {
	return types.NewError("sys.invalidCast", "type", typ, "raw", raw, "kind", fmt.Sprintf("%T", raw))
}

type valueType struct{}

func (valueType) Cast(raw any) (value any, err error)              { return raw, nil }
func (valueType) Serialize(value any) (serialized any, err error)  { return value, nil }
func (valueType) ChangedInPlace(original, value any) (bool, error) { return false, nil }

type intType struct{}

func (t intType) Cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
		return
	case types.Int:
		value = x
	case bool:
		if x {
			value = types.Int(1)
		} else {
			value = types.Int(0)
		}
	case string:
		value, err = t.parse(x)
	case types.String:
		value, err = t.parse(string(x))
	case json.Number:
		value, err = t.parse(string(x))
	default:
		n, ok := number[int64](raw)
		if ok {
			value = types.Int(n)
			return
		}
		base, ok := underlying(raw)
		if ok {
			return t.Cast(base)
		}
		err = invalidCast(AttrTypeInt, raw)
	}
	return
}

func (intType) parse(s string) (value any, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	i, intErr := strconv.ParseInt(s, 10, 64)
	if intErr == nil {
		value = types.Int(i)
		return
	}
	f, floatErr := strconv.ParseFloat(s, 64)
	if floatErr != nil {
		err = invalidCast(AttrTypeInt, s)
		return
	}
	value = types.Int(int64(f))
	return
}

func (intType) Serialize(value any) (serialized any, err error) {
	switch x := value.(type) {
	case nil:
	case types.Int:
		serialized = int64(x)
	default:
		err = invalidCast(AttrTypeInt, value)
	}
	return
}

func (intType) ChangedInPlace(original, value any) (bool, error) { return false, nil }

func (intType) GoType() reflect.Type { return reflect.TypeOf(types.Int(0)) }

type floatType struct{}

func (t floatType) Cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
		return
	case types.Float:
		value = x
	case string:
		value, err = t.parse(x)
	case types.String:
		value, err = t.parse(string(x))
	case json.Number:
		value, err = t.parse(string(x))
	default:
		n, ok := number[float64](raw)
		if ok {
			value = types.Float(n)
			return
		}
		base, ok := underlying(raw)
		if ok {
			return t.Cast(base)
		}
		err = invalidCast(AttrTypeFloat, raw)
	}
	return
}

func (floatType) parse(s string) (value any, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	f, parseErr := strconv.ParseFloat(s, 64)
	if parseErr != nil {
		err = invalidCast(AttrTypeFloat, s)
		return
	}
	value = types.Float(f)
	return
}

func (floatType) Serialize(value any) (serialized any, err error) {
	switch x := value.(type) {
	case nil:
	case types.Float:
		serialized = float64(x)
	default:
		err = invalidCast(AttrTypeFloat, value)
	}
	return
}

func (floatType) ChangedInPlace(original, value any) (bool, error) { return false, nil }

func (floatType) GoType() reflect.Type { return reflect.TypeOf(types.Float(0)) }

type stringType struct{}

func (t stringType) Cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case types.String:
		value = x
	case string:
		value = types.String(x)
	case []byte:
		value = types.String(x)
	case bool:
		value = types.String(strconv.FormatBool(x))
	case types.Bool:
		value = types.String(strconv.FormatBool(bool(x)))
	case json.Number:
		value = types.String(x)
	case types.Int:
		value = types.String(strconv.FormatInt(int64(x), 10))
	case types.Float:
		value = types.String(strconv.FormatFloat(float64(x), 'g', -1, 64))
	case float32, float64:
		f, _ := number[float64](raw)
		value = types.String(strconv.FormatFloat(f, 'g', -1, 64))
	default:
		base, ok := underlying(raw)
		if ok {
			return t.Cast(base)
		}
		i, ok := number[int64](raw)
		if !ok {
			err = invalidCast(AttrTypeString, raw)
			return
		}
		value = types.String(strconv.FormatInt(i, 10))
	}
	return
}

func (stringType) Serialize(value any) (serialized any, err error) {
	switch x := value.(type) {
	case nil:
	case types.String:
		serialized = string(x)
	default:
		err = invalidCast(AttrTypeString, value)
	}
	return
}

func (stringType) ChangedInPlace(original, value any) (bool, error) { return false, nil }

func (stringType) GoType() reflect.Type { return reflect.TypeOf(types.String("")) }

type boolType struct{}

func (t boolType) Cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case types.Bool:
		value = x
	case bool:
		value = types.Bool(x)
	case string:
		value, err = parseBool(x)
	case types.String:
		value, err = parseBool(string(x))
	default:
		base, ok := underlying(raw)
		if ok {
			return t.Cast(base)
		}
		n, ok := number[int64](raw)
		if !ok {
			err = invalidCast(AttrTypeBool, raw)
			return
		}
		value = types.Bool(n != 0)
	}
	return
}

func parseBool(s string) (value any, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
	case "t", "true", "1", "yes", "on":
		value = types.Bool(true)
	case "f", "false", "0", "no", "off":
		value = types.Bool(false)
	default:
		err = invalidCast(AttrTypeBool, s)
	}
	return
}

func (boolType) Serialize(value any) (serialized any, err error) {
	switch x := value.(type) {
	case nil:
	case types.Bool:
		serialized = bool(x)
	default:
		err = invalidCast(AttrTypeBool, value)
	}
	return
}

func (boolType) ChangedInPlace(original, value any) (bool, error) { return false, nil }

func (boolType) GoType() reflect.Type { return reflect.TypeOf(types.Bool(false)) }

type instType struct{}

func (t instType) Cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case types.Inst:
		value = x
	case time.Time:
		value = types.Inst(x)
	case string:
		if strings.TrimSpace(x) == "" {
			return
		}
		parsed, parseErr := time.Parse(time.RFC3339Nano, x)
		if parseErr != nil {
			err = invalidCast(AttrTypeInst, raw)
			return
		}
		value = types.Inst(parsed)
	default:
		base, ok := underlying(raw)
		if ok {
			return t.Cast(base)
		}
		ms, ok := number[int64](raw)
		if !ok {
			err = invalidCast(AttrTypeInst, raw)
			return
		}
		value = types.Inst(time.UnixMilli(ms).UTC())
	}
	return
}

func (instType) Serialize(value any) (serialized any, err error) {
	switch x := value.(type) {
	case nil:
	case types.Inst:
		serialized = time.Time(x)
	default:
		err = invalidCast(AttrTypeInst, value)
	}
	return
}

func (instType) ChangedInPlace(original, value any) (bool, error) { return false, nil }

func (instType) GoType() reflect.Type { return reflect.TypeOf(types.Inst{}) }

// stringsType stores lists as comma separated strings.
type stringsType struct{}

func (t stringsType) Cast(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case types.Strings:
		value = x
	case []string:
		value = types.Strings(x)
	case []any:
		list := make(types.Strings, len(x))
		for i, elt := range x {
			s, ok := elt.(string)
			if !ok {
				err = invalidCast(AttrTypeStrings, raw)
				return
			}
			list[i] = s
		}
		value = list
	case string:
		value = splitList(x)
	default:
		base, ok := underlying(raw)
		if ok {
			return t.Cast(base)
		}
		err = invalidCast(AttrTypeStrings, raw)
	}
	return
}

func (stringsType) Deserialize(raw any) (value any, err error) {
	switch x := raw.(type) {
	case nil:
	case string:
		value = splitList(x)
	case []byte:
		value = splitList(string(x))
	default:
		base, ok := underlying(raw)
		if ok {
			if s, isString := base.(string); isString {
				value = splitList(s)
				return
			}
		}
		err = invalidCast(AttrTypeStrings, raw)
	}
	return
}

func splitList(s string) (list types.Strings) {
	list = types.Strings{}
	if s == "" {
		return
	}
	for _, part := range strings.Split(s, ",") {
		list = append(list, strings.TrimSpace(part))
	}
	return
}

func (stringsType) Serialize(value any) (serialized any, err error) {
	switch x := value.(type) {
	case nil:
	case types.Strings:
		serialized = strings.Join(x, ",")
	default:
		err = invalidCast(AttrTypeStrings, value)
	}
	return
}

func (stringsType) ChangedInPlace(original, value any) (changed bool, err error) {
	o, _ := original.(types.Strings)
	v, _ := value.(types.Strings)
	changed = !slices.Equal(o, v)
	return
}

func (stringsType) GoType() reflect.Type { return reflect.TypeOf(types.Strings{}) }
