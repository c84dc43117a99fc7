package record

import (
	"github.com/dball/fieldstate/internal/attrset"
	"github.com/dball/fieldstate/internal/types"
	"go.uber.org/zap"
)

// Record is a set of attributes conforming to a schema, tracking the changes
// assigned since it was loaded or last committed. Records are not safe for
// concurrent use.
type Record struct {
	schema *Schema
	attrs  *attrset.Set
}

// Change is the original and current cast values of a changed attribute.
type Change struct {
	From any
	To   any
}

// Schema returns the schema of the record.
func (rec *Record) Schema() *Schema {
	return rec.schema
}

// Attributes returns the attributes of the record. Writes to the set are
// writes to the record.
func (rec *Record) Attributes() *attrset.Set {
	return rec.attrs
}

// Get returns the named attribute, or a null attribute if the record has none.
func (rec *Record) Get(name types.Name) *attrset.Attribute {
	return rec.attrs.Get(name)
}

// Read returns the cast value of the named attribute, nil if the attribute is
// uninitialized or absent.
func (rec *Record) Read(name types.Name) (value any, err error) {
	value, _, err = rec.attrs.FetchValue(name)
	return
}

// Assign assigns the raw value to the named attribute as a user.
func (rec *Record) Assign(name types.Name, raw any) error {
	return rec.attrs.WriteFromUser(name, raw)
}

// Changed returns the names of the changed attributes in order.
func (rec *Record) Changed() (names []types.Name, err error) {
	names = []types.Name{}
	for _, pair := range rec.attrs.Pairs() {
		var changed bool
		changed, err = pair.Attr.IsChanged()
		if err != nil {
			names = nil
			return
		}
		if changed {
			names = append(names, pair.Name)
		}
	}
	return
}

// Changes returns the original and current values of the changed attributes.
func (rec *Record) Changes() (changes map[types.Name]Change, err error) {
	names, err := rec.Changed()
	if err != nil {
		return
	}
	changes = make(map[types.Name]Change, len(names))
	for _, name := range names {
		attr := rec.attrs.Get(name)
		var change Change
		change.From, err = attr.OriginalValue()
		if err == nil {
			change.To, err = attr.Value()
		}
		if err != nil {
			changes = nil
			return
		}
		changes[name] = change
	}
	return
}

// Commit accepts the current values as the originals. Afterwards no attribute
// is changed. If any value cannot be cast, the record is unchanged.
func (rec *Record) Commit() (err error) {
	var names []types.Name
	committed := rec.attrs.Clone()
	for _, pair := range rec.attrs.Pairs() {
		if !pair.Attr.IsInitialized() {
			continue
		}
		var forgotten *attrset.Attribute
		forgotten, err = pair.Attr.ForgettingAssignment()
		var changed bool
		if err == nil {
			changed, err = pair.Attr.IsChanged()
		}
		if err != nil {
			rec.schema.logger.Warn("record: commit failed", zap.String("name", string(pair.Name)), zap.Error(err))
			return
		}
		if changed {
			names = append(names, pair.Name)
		}
		committed.Set(pair.Name, forgotten)
	}
	rec.attrs = committed
	rec.schema.logger.Debug("record: committed", zap.Strings("changed", nameStrings(names)))
	return
}

// Reload replaces the attributes with the given stored values. Unsaved
// assignments are discarded.
func (rec *Record) Reload(values attrset.Fields) {
	names, err := rec.Changed()
	switch {
	case err != nil:
		rec.schema.logger.Warn("record: reload discarded assignments", zap.Error(err))
	case len(names) > 0:
		rec.schema.logger.Warn("record: reload discarded assignments", zap.Strings("names", nameStrings(names)))
	}
	rec.attrs = rec.schema.builder.BuildFromDatabase(values, nil)
}

// Restore reverts the named attributes to the values they had before their
// assignments. With no names, every changed attribute is restored.
func (rec *Record) Restore(names ...types.Name) (err error) {
	if len(names) == 0 {
		names, err = rec.Changed()
		if err != nil {
			return
		}
	}
	for _, name := range names {
		if rec.attrs.Get(name).IsNull() {
			err = types.NewError("record.unknownAttribute", "name", name)
			return
		}
	}
	for _, name := range names {
		attr := rec.attrs.Get(name)
		for attr.OriginalAttribute() != nil {
			attr = attr.OriginalAttribute()
		}
		rec.attrs.Set(name, attr)
	}
	rec.schema.logger.Debug("record: restored", zap.Strings("names", nameStrings(names)))
	return
}

// Decode sets the attr tagged fields of the struct the target points to.
func (rec *Record) Decode(target any) error {
	return rec.schema.assembler.AssembleInto(target, rec.attrs)
}

// MarshalJSON encodes the record as the compact forms of its attributes.
func (rec *Record) MarshalJSON() ([]byte, error) {
	return rec.attrs.MarshalJSON()
}

// MarshalYAML encodes the record as the structured forms of its attributes.
func (rec *Record) MarshalYAML() (any, error) {
	return rec.attrs.MarshalYAML()
}

func nameStrings(names []types.Name) (strs []string) {
	strs = make([]string, len(names))
	for i, name := range names {
		strs[i] = string(name)
	}
	return
}
