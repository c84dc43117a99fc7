// Package attribute models the value of a single field of a record: what was stored,
// what was assigned, what it casts to, and where it came from.
//
// Attributes are values. Every transformation returns a new attribute, the only state
// that ever changes within an attribute is the fill-once memo of a deferred raw value
// and the fill-once cache of the cast value. Attributes are not safe for concurrent
// use without external synchronization.
package attribute

import (
	"github.com/dball/fieldstate/internal/sys"
	. "github.com/dball/fieldstate/internal/types"
)

// Kind is the kind of source of an attribute's value.
type Kind int8

// The kind values are also the discriminants of the compact form.
const (
	KindUninitialized       Kind = 0
	KindFromUser            Kind = 1
	KindFromDatabase        Kind = 2
	KindPreCast             Kind = 3
	KindUserProvidedDefault Kind = 4
)

func (kind Kind) String() string {
	switch kind {
	case KindUninitialized:
		return "Uninitialized"
	case KindFromUser:
		return "FromUser"
	case KindFromDatabase:
		return "FromDatabase"
	case KindPreCast:
		return "WithCastValue"
	case KindUserProvidedDefault:
		return "UserProvidedDefault"
	}
	return "Unknown"
}

// Source describes how an attribute got its value. Original is the attribute
// that existed before a user assignment or default was applied, if any.
type Source struct {
	Kind     Kind
	Original *Attribute
}

// HasLineage returns true if the source links to an original attribute.
func (source Source) HasLineage() bool {
	return source.Original != nil &&
		(source.Kind == KindFromUser || source.Kind == KindUserProvidedDefault)
}

// Attribute is the state of one field of a record. An attribute is either
// uninitialized, or populated with a raw value and a source.
type Attribute struct {
	name   Name
	typ    Type
	raw    *RawValue
	source Source
	value  cell[any]
	null   bool
}

// FromDatabase returns an attribute whose raw value was loaded from storage.
func FromDatabase(name Name, raw any, typ Type) *Attribute {
	return &Attribute{
		name:   name,
		typ:    typ,
		raw:    &RawValue{value: raw},
		source: Source{Kind: KindFromDatabase},
	}
}

// FromUser returns an attribute whose raw value was assigned by a user, replacing
// the original attribute.
func FromUser(name Name, raw any, typ Type, original *Attribute) (attr *Attribute, err error) {
	if original == nil {
		err = NewError("attribute.missingOriginal", "name", name, "kind", KindFromUser)
		return
	}
	attr = &Attribute{
		name:   name,
		typ:    typ,
		raw:    &RawValue{value: raw},
		source: Source{Kind: KindFromUser, Original: original},
	}
	return
}

// WithCastValue returns an attribute whose value is already cast.
func WithCastValue(name Name, value any, typ Type) *Attribute {
	attr := &Attribute{
		name:   name,
		typ:    typ,
		raw:    &RawValue{value: value},
		source: Source{Kind: KindPreCast},
	}
	attr.value.set(value)
	return attr
}

// Uninitialized returns an attribute for a known field which has no value.
func Uninitialized(name Name, typ Type) *Attribute {
	return &Attribute{name: name, typ: typ}
}

// UserProvidedDefault returns an attribute whose raw value is the default of its
// field. The original, if given, is the attribute the default replaced.
func UserProvidedDefault(name Name, raw RawValue, typ Type, original *Attribute) *Attribute {
	return &Attribute{
		name:   name,
		typ:    typ,
		raw:    &raw,
		source: Source{Kind: KindUserProvidedDefault, Original: original},
	}
}

// Null returns the attribute for a field that does not exist. Null attributes
// are uninitialized and may not be written.
func Null(name Name) *Attribute {
	return &Attribute{name: name, typ: sys.Value, null: true}
}

// Name returns the name of the attribute.
func (attr *Attribute) Name() Name {
	return attr.name
}

// Type returns the type of the attribute.
func (attr *Attribute) Type() Type {
	return attr.typ
}

// Source returns the source of the attribute's value.
func (attr *Attribute) Source() Source {
	return attr.source
}

// Kind returns the kind of the attribute's source.
func (attr *Attribute) Kind() Kind {
	return attr.source.Kind
}

// IsInitialized returns true if the attribute has a value.
func (attr *Attribute) IsInitialized() bool {
	return attr.raw != nil
}

// IsNull returns true if the attribute stands in for a field that does not exist.
func (attr *Attribute) IsNull() bool {
	return attr.null
}

// CameFromUser returns true if the value was assigned by a user.
func (attr *Attribute) CameFromUser() bool {
	return attr.source.Kind == KindFromUser
}

// HasBeenRead returns true if the value has been cast.
func (attr *Attribute) HasBeenRead() bool {
	if attr.raw == nil {
		return false
	}
	_, ok := attr.value.get()
	return ok
}

// OriginalAttribute returns the attribute this one replaced, if any.
func (attr *Attribute) OriginalAttribute() *Attribute {
	if !attr.source.HasLineage() {
		return nil
	}
	return attr.source.Original
}

// ValueBeforeTypeCast returns the raw value. This never casts.
func (attr *Attribute) ValueBeforeTypeCast() any {
	if attr.raw == nil {
		return nil
	}
	return attr.raw.Get()
}

// Value returns the cast value. The raw value is cast at most once; cast errors
// are returned as is and leave the attribute unread.
func (attr *Attribute) Value() (value any, err error) {
	if attr.raw == nil {
		return
	}
	value, ok := attr.value.get()
	if ok {
		return
	}
	value, err = attr.cast(attr.raw.Get())
	if err != nil {
		value = nil
		return
	}
	attr.value.set(value)
	return
}

func (attr *Attribute) cast(raw any) (value any, err error) {
	if attr.typ == nil {
		value = raw
		return
	}
	switch attr.source.Kind {
	case KindPreCast:
		value = raw
	case KindFromDatabase:
		deserializer, ok := attr.typ.(Deserializer)
		if ok {
			value, err = deserializer.Deserialize(raw)
		} else {
			value, err = attr.typ.Cast(raw)
		}
	default:
		value, err = attr.typ.Cast(raw)
	}
	return
}

// OriginalValue returns the cast value as it was before the most recent chain
// of user assignments and defaults.
func (attr *Attribute) OriginalValue() (value any, err error) {
	original := attr.OriginalAttribute()
	if original != nil {
		return original.OriginalValue()
	}
	return attr.Value()
}

// OriginalValueBeforeTypeCast returns the raw value as it was before the most
// recent chain of user assignments and defaults.
func (attr *Attribute) OriginalValueBeforeTypeCast() any {
	original := attr.OriginalAttribute()
	if original != nil {
		return original.OriginalValueBeforeTypeCast()
	}
	return attr.ValueBeforeTypeCast()
}

// ValueForDatabase returns the cast value serialized by the type.
func (attr *Attribute) ValueForDatabase() (serialized any, err error) {
	if attr.raw == nil {
		return
	}
	value, err := attr.Value()
	if err != nil {
		return
	}
	if attr.typ == nil {
		serialized = value
		return
	}
	serialized, err = attr.typ.Serialize(value)
	return
}

// IsChanged returns true if a user assigned a raw value that differs from the
// original, or changed the cast value in place.
func (attr *Attribute) IsChanged() (changed bool, err error) {
	if !attr.CameFromUser() {
		return
	}
	if !valuesEqual(attr.ValueBeforeTypeCast(), attr.OriginalValueBeforeTypeCast()) {
		changed = true
		return
	}
	changed, err = attr.IsChangedInPlace()
	return
}

// IsChangedInPlace returns true if the type reports that the cast value has been
// mutated relative to the original value.
func (attr *Attribute) IsChangedInPlace() (changed bool, err error) {
	if attr.raw == nil || !attr.CameFromUser() || attr.typ == nil {
		return
	}
	original, err := attr.OriginalValue()
	if err != nil {
		return
	}
	value, err := attr.Value()
	if err != nil {
		return
	}
	changed, err = attr.typ.ChangedInPlace(original, value)
	return
}

// WithValueFromUser returns an attribute with the given raw value as assigned by a
// user, remembering this attribute as its original.
func (attr *Attribute) WithValueFromUser(raw any) *Attribute {
	return &Attribute{
		name:   attr.name,
		typ:    attr.typ,
		raw:    &RawValue{value: raw},
		source: Source{Kind: KindFromUser, Original: attr},
	}
}

// WithValueFromDatabase returns an attribute with the given raw value as loaded
// from storage. The lineage is dropped.
func (attr *Attribute) WithValueFromDatabase(raw any) *Attribute {
	return FromDatabase(attr.name, raw, attr.typ)
}

// WithCastValue returns an attribute with the given cast value.
func (attr *Attribute) WithCastValue(value any) *Attribute {
	return WithCastValue(attr.name, value, attr.typ)
}

// WithType returns an attribute with the same raw value and source but a
// different type. The new attribute has not been read.
func (attr *Attribute) WithType(typ Type) *Attribute {
	if attr.raw == nil {
		return &Attribute{name: attr.name, typ: typ, null: attr.null}
	}
	return &Attribute{
		name:   attr.name,
		typ:    typ,
		raw:    attr.raw,
		source: attr.source,
	}
}

// ForgettingAssignment returns an attribute whose cast value is this attribute's
// value, without lineage. This is used once a value has been durably written.
func (attr *Attribute) ForgettingAssignment() (forgotten *Attribute, err error) {
	value, err := attr.Value()
	if err != nil {
		return
	}
	forgotten = attr.WithCastValue(value)
	return
}

// Dup returns a copy of the attribute whose memo and cache are independent of
// this one's. The lineage is shared, attributes being values.
func (attr *Attribute) Dup() *Attribute {
	dup := *attr
	if attr.raw != nil {
		raw := *attr.raw
		dup.raw = &raw
	}
	return &dup
}
