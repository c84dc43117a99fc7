package attrset

import (
	"github.com/dball/fieldstate/internal/attribute"
	"github.com/dball/fieldstate/internal/sys"
	. "github.com/dball/fieldstate/internal/types"
)

// TypePair associates a name with the type of its attribute.
type TypePair struct {
	Name Name
	Type Type
}

// BuilderConfig configures a builder.
type BuilderConfig struct {
	// DefaultType is the type of values whose names have no declared type.
	DefaultType Type
	// Defaults are the attributes of names absent from the loaded values. They
	// are copied into each set.
	Defaults map[Name]*Attribute
	// Null produces the attribute for names not in a set.
	Null NullFactory
}

var defaultBuilderConfig = BuilderConfig{
	DefaultType: sys.Value,
}

// Builder builds sets from stored values for a fixed list of declared types.
type Builder struct {
	types  []TypePair
	lookup map[Name]Type
	config BuilderConfig
}

// NewBuilder returns a builder for the declared types.
func NewBuilder(types []TypePair, config BuilderConfig) (builder *Builder) {
	if config.DefaultType == nil {
		config.DefaultType = defaultBuilderConfig.DefaultType
	}
	builder = &Builder{
		types:  types,
		lookup: make(map[Name]Type, len(types)),
		config: config,
	}
	for _, pair := range types {
		builder.lookup[pair.Name] = pair.Type
	}
	return
}

// Types returns the declared types in order.
func (builder *Builder) Types() []TypePair {
	return builder.types
}

func (builder *Builder) typeOf(name Name, extraTypes map[Name]Type) Type {
	typ, ok := extraTypes[name]
	if ok {
		return typ
	}
	typ, ok = builder.lookup[name]
	if ok {
		return typ
	}
	return builder.config.DefaultType
}

func (builder *Builder) pairs(values Fields, extraTypes map[Name]Type) (pairs []Pair) {
	pairs = make([]Pair, 0, len(values)+len(builder.types))
	seen := make(map[Name]Void, len(values)+len(builder.types))
	// later fields of the same name win
	last := make(map[Name]int, len(values))
	for i, field := range values {
		last[field.Name] = i
	}
	for _, field := range values {
		if _, ok := seen[field.Name]; ok {
			continue
		}
		seen[field.Name] = Void{}
		raw := values[last[field.Name]].Value
		attr := attribute.FromDatabase(field.Name, raw, builder.typeOf(field.Name, extraTypes))
		pairs = append(pairs, Pair{Name: field.Name, Attr: attr})
	}
	for _, pair := range builder.types {
		if _, ok := seen[pair.Name]; ok {
			continue
		}
		seen[pair.Name] = Void{}
		var attr *Attribute
		def, ok := builder.config.Defaults[pair.Name]
		if ok {
			attr = def.Dup()
		} else {
			attr = attribute.Uninitialized(pair.Name, builder.typeOf(pair.Name, extraTypes))
		}
		pairs = append(pairs, Pair{Name: pair.Name, Attr: attr})
	}
	return
}

// BuildFromDatabase returns a set of the stored values, typed by the extra types
// or else the declared types. Declared names without values are uninitialized
// unless they have a default.
func (builder *Builder) BuildFromDatabase(values Fields, extraTypes map[Name]Type) *Set {
	return FromPairs(builder.pairs(values, extraTypes)).WithNullFactory(builder.config.Null)
}

// Lazy returns a materializer that builds the same set as BuildFromDatabase when
// first materialized.
func (builder *Builder) Lazy(values Fields, extraTypes map[Name]Type) *LazyAttributes {
	return &LazyAttributes{builder: builder, values: values, extraTypes: extraTypes}
}

// LazyAttributes are attributes built from stored values on demand.
type LazyAttributes struct {
	builder    *Builder
	values     Fields
	extraTypes map[Name]Type
	pairs      []Pair
	built      bool
}

var _ Materializer = (*LazyAttributes)(nil)

// Materialize builds the attributes once and returns them.
func (lazy *LazyAttributes) Materialize() (pairs []Pair, err error) {
	if !lazy.built {
		lazy.pairs = lazy.builder.pairs(lazy.values, lazy.extraTypes)
		lazy.built = true
	}
	pairs = lazy.pairs
	return
}

// Set returns a set of the materialized attributes.
func (lazy *LazyAttributes) Set() (set *Set, err error) {
	set = withCapacity(0).WithNullFactory(lazy.builder.config.Null)
	err = set.InitWith(lazy)
	return
}
