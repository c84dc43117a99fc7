// Package types defines the core system types.
package types

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"gopkg.in/yaml.v3"
)

// Void is used for values in maps used as sets.
type Void struct{}

// Name identifies an attribute within a record.
type Name string

// Value is a scalar cast value of the system types.
type Value interface {
	IsEmpty() bool
}

// String is a string.
type String string

func (s String) String() string {
	return fmt.Sprintf("#str(%q)", string(s))
}

// Int is a signed integer.
type Int int64

func (i Int) String() string {
	return fmt.Sprintf("#int(%d)", int64(i))
}

// Bool is a boolean.
type Bool bool

func (b Bool) String() string {
	if bool(b) {
		return "#t"
	} else {
		return "#f"
	}
}

// Inst is a instant in time.
type Inst time.Time

func (inst Inst) String() string {
	return fmt.Sprintf("#inst(\"%s\")", time.Time(inst).Format(time.RFC3339))
}

// Float is a floating-point number.
type Float float64

func (f Float) String() string {
	return fmt.Sprintf("#float(%v)", float64(f))
}

// Strings is a list of strings. Unlike the scalars, callers may change a Strings
// value in place.
type Strings []string

// TimeType is the type of golang's Time value.
var TimeType = reflect.TypeOf(time.Time{})

func (x String) IsEmpty() bool  { return string(x) == "" }
func (x Int) IsEmpty() bool     { return int64(x) == 0 }
func (x Bool) IsEmpty() bool    { return !bool(x) }
func (x Inst) IsEmpty() bool    { return time.Time(x).IsZero() }
func (x Float) IsEmpty() bool   { return float64(x) == 0 }
func (x Strings) IsEmpty() bool { return len(x) == 0 }

// Type casts raw values into the values callers work with, and serializes
// them for storage. Types are opaque to attributes and compared by value.
type Type interface {
	// Cast converts a raw value, typically user input, into a cast value.
	Cast(raw any) (value any, err error)
	// Serialize converts a cast value into its database representation.
	Serialize(value any) (serialized any, err error)
	// ChangedInPlace reports whether the value was mutated without being reassigned.
	ChangedInPlace(original any, value any) (changed bool, err error)
}

// Deserializer is implemented by types that convert database values differently
// than user input.
type Deserializer interface {
	Deserialize(raw any) (value any, err error)
}

// Equaler is implemented by types whose handles are not comparable with ==.
type Equaler interface {
	Equal(other Type) bool
}

// ValueType is implemented by types that know the go type of their cast values.
type ValueType interface {
	GoType() reflect.Type
}

// SameType returns true if both types are the same type handle.
func SameType(t1 Type, t2 Type) bool {
	if t1 == nil || t2 == nil {
		return t1 == nil && t2 == nil
	}
	if eq, ok := t1.(Equaler); ok {
		return eq.Equal(t2)
	}
	if !reflect.TypeOf(t1).Comparable() || !reflect.TypeOf(t2).Comparable() {
		return reflect.DeepEqual(t1, t2)
	}
	return t1 == t2
}

func (inst Inst) MarshalYAML() (any, error) {
	return time.Time(inst), nil
}

func (inst *Inst) UnmarshalYAML(node *yaml.Node) (err error) {
	var t time.Time
	err = node.Decode(&t)
	if err != nil {
		return
	}
	*inst = Inst(t)
	return
}

func (inst Inst) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(inst))
}

func (inst *Inst) UnmarshalJSON(data []byte) (err error) {
	var t time.Time
	err = json.Unmarshal(data, &t)
	if err != nil {
		return
	}
	*inst = Inst(t)
	return
}
