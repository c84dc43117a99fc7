// Package attrset provides the ordered set of attributes that represents the
// full field state of one record.
//
// Sets preserve insertion order: replacing an attribute keeps its position, new
// names are appended. Attributes are never edited in place, writes replace them
// wholesale. Sets are not safe for concurrent use; writes must be exclusive.
package attrset

import (
	"github.com/dball/fieldstate/internal/attribute"
	"github.com/dball/fieldstate/internal/iterator"
	. "github.com/dball/fieldstate/internal/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Attribute is the element type of sets.
type Attribute = attribute.Attribute

// Pair associates a name with an attribute.
type Pair struct {
	Name Name
	Attr *Attribute
}

// NullFactory produces the attribute returned by Get for names not in the set.
type NullFactory func(name Name) *Attribute

// Set is an ordered mapping from names to attributes.
type Set struct {
	index map[Name]int
	names []Name
	attrs []*Attribute
	null  NullFactory
}

var _ iterator.Indexed[*Attribute] = (*Set)(nil)

// New returns a set of the given attributes, keyed by their names.
func New(attrs ...*Attribute) (set *Set) {
	set = withCapacity(len(attrs))
	for _, attr := range attrs {
		set.Set(attr.Name(), attr)
	}
	return
}

// FromPairs returns a set of the given pairs in the given order.
func FromPairs(pairs []Pair) (set *Set) {
	set = withCapacity(len(pairs))
	for _, pair := range pairs {
		set.Set(pair.Name, pair.Attr)
	}
	return
}

// FromMap returns a set of the given attributes ordered by name.
func FromMap(attrs map[Name]*Attribute) (set *Set) {
	set = withCapacity(len(attrs))
	names := maps.Keys(attrs)
	slices.Sort(names)
	for _, name := range names {
		set.Set(name, attrs[name])
	}
	return
}

func withCapacity(n int) *Set {
	return &Set{
		index: make(map[Name]int, n),
		names: make([]Name, 0, n),
		attrs: make([]*Attribute, 0, n),
	}
}

// WithNullFactory sets the factory of attributes for missing names and returns the set.
func (set *Set) WithNullFactory(null NullFactory) *Set {
	set.null = null
	return set
}

// Len returns the number of attributes in the set.
func (set *Set) Len() int {
	return len(set.attrs)
}

// At returns the attribute at the given position.
func (set *Set) At(i int) *Attribute {
	return set.attrs[i]
}

// Each calls accept with the attributes in order until it returns false.
func (set *Set) Each(accept iterator.Accept[*Attribute]) {
	for _, attr := range set.attrs {
		if !accept(attr) {
			return
		}
	}
}

// Iterator returns an iterator over the attributes in order.
func (set *Set) Iterator() *iterator.Iterator[*Attribute] {
	return iterator.BuildIterator[*Attribute](set)
}

// Values returns the attributes in order.
func (set *Set) Values() []*Attribute {
	return slices.Clone(set.attrs)
}

// Pairs returns the names and attributes in order.
func (set *Set) Pairs() (pairs []Pair) {
	pairs = make([]Pair, len(set.attrs))
	for i, attr := range set.attrs {
		pairs[i] = Pair{Name: set.names[i], Attr: attr}
	}
	return
}

// Get returns the attribute for the name, or a null attribute if there is none.
func (set *Set) Get(name Name) *Attribute {
	i, ok := set.index[name]
	if ok {
		return set.attrs[i]
	}
	if set.null != nil {
		return set.null(name)
	}
	return attribute.Null(name)
}

// Fetch returns the attribute for the name, or the result of onMissing if there
// is none. The set is not changed.
func (set *Set) Fetch(name Name, onMissing func() *Attribute) *Attribute {
	i, ok := set.index[name]
	if ok {
		return set.attrs[i]
	}
	return onMissing()
}

// FetchValue returns the cast value of the named attribute. The value is absent
// if the name is not in the set or its attribute is uninitialized.
func (set *Set) FetchValue(name Name) (value any, ok bool, err error) {
	i, present := set.index[name]
	if !present || !set.attrs[i].IsInitialized() {
		return
	}
	value, err = set.attrs[i].Value()
	ok = err == nil
	return
}

// Set replaces the attribute for the name in place, or appends it if the name
// is new.
func (set *Set) Set(name Name, attr *Attribute) {
	i, ok := set.index[name]
	if ok {
		set.attrs[i] = attr
		return
	}
	if set.index == nil {
		set.index = make(map[Name]int)
	}
	set.index[name] = len(set.attrs)
	set.names = append(set.names, name)
	set.attrs = append(set.attrs, attr)
}

func (set *Set) write(name Name, transform func(*Attribute) *Attribute) (err error) {
	attr := set.Get(name)
	if attr.IsNull() {
		err = NewError("attrset.unknownAttribute", "name", name)
		return
	}
	set.Set(name, transform(attr))
	return
}

// WriteFromDatabase replaces the named attribute with one holding the raw value
// as loaded from storage.
func (set *Set) WriteFromDatabase(name Name, raw any) error {
	return set.write(name, func(attr *Attribute) *Attribute { return attr.WithValueFromDatabase(raw) })
}

// WriteFromUser replaces the named attribute with one holding the raw value as
// assigned by a user.
func (set *Set) WriteFromUser(name Name, raw any) error {
	return set.write(name, func(attr *Attribute) *Attribute { return attr.WithValueFromUser(raw) })
}

// WriteCastValue replaces the named attribute with one holding the cast value.
func (set *Set) WriteCastValue(name Name, value any) error {
	return set.write(name, func(attr *Attribute) *Attribute { return attr.WithCastValue(value) })
}

// Reset replaces the named attribute with an uninitialized attribute of the
// same type. Names not in the set are ignored.
func (set *Set) Reset(name Name) {
	i, ok := set.index[name]
	if !ok {
		return
	}
	set.attrs[i] = attribute.Uninitialized(name, set.attrs[i].Type())
}

// ValuesBeforeTypeCast returns the raw values of all attributes in order.
func (set *Set) ValuesBeforeTypeCast() (fields Fields) {
	fields = make(Fields, len(set.attrs))
	for i, pair := range set.Pairs() {
		fields[i] = Field{Name: pair.Name, Value: pair.Attr.ValueBeforeTypeCast()}
	}
	return
}

// ToHash returns the cast values of the initialized attributes in order. The
// first cast error is returned as is.
func (set *Set) ToHash() (fields Fields, err error) {
	fields = make(Fields, 0, len(set.attrs))
	for _, pair := range set.Pairs() {
		if !pair.Attr.IsInitialized() {
			continue
		}
		var value any
		value, err = pair.Attr.Value()
		if err != nil {
			fields = nil
			return
		}
		fields = append(fields, Field{Name: pair.Name, Value: value})
	}
	return
}

// Keys returns the names of the initialized attributes in order.
func (set *Set) Keys() []Name {
	return set.namesWhere((*Attribute).IsInitialized)
}

// namesWhere returns the names of the attributes satisfying pred, in order.
// Attributes are keyed by their own names.
func (set *Set) namesWhere(pred func(*Attribute) bool) []Name {
	return iterator.Map(iterator.Filter(set.Iterator(), pred), (*Attribute).Name).Drain()
}

// HasKey returns true if the name is in the set and its attribute is initialized.
func (set *Set) HasKey(name Name) bool {
	i, ok := set.index[name]
	return ok && set.attrs[i].IsInitialized()
}

// Accessed returns the names of the attributes whose values have been read, in order.
func (set *Set) Accessed() []Name {
	return set.namesWhere((*Attribute).HasBeenRead)
}

// Map returns a set with the same names in the same order, each attribute
// replaced by the result of the transform.
func (set *Set) Map(transform func(*Attribute) *Attribute) (mapped *Set) {
	mapped = &Set{
		index: maps.Clone(set.index),
		names: slices.Clone(set.names),
		attrs: make([]*Attribute, len(set.attrs)),
		null:  set.null,
	}
	for i, attr := range set.attrs {
		mapped.attrs[i] = transform(attr)
	}
	return
}

// Clone returns an independent set sharing this set's attributes.
func (set *Set) Clone() *Set {
	return set.Map(func(attr *Attribute) *Attribute { return attr })
}

// DeepDup returns an independent set of copies of this set's attributes.
func (set *Set) DeepDup() *Set {
	return set.Map((*Attribute).Dup)
}

// Except returns the attributes by name, omitting the given names.
func (set *Set) Except(names ...Name) (attrs map[Name]*Attribute) {
	attrs = make(map[Name]*Attribute, len(set.attrs))
	for _, pair := range set.Pairs() {
		attrs[pair.Name] = pair.Attr
	}
	maps.DeleteFunc(attrs, func(name Name, _ *Attribute) bool {
		return slices.Contains(names, name)
	})
	return
}

// Equal returns true if both sets associate the same names with equal
// attributes, regardless of order.
func (set *Set) Equal(other *Set) bool {
	if set == nil || other == nil {
		return set == other
	}
	if len(set.attrs) != len(other.attrs) {
		return false
	}
	for name, i := range set.index {
		j, ok := other.index[name]
		if !ok || !set.attrs[i].Equal(other.attrs[j]) {
			return false
		}
	}
	return true
}
