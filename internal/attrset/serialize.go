package attrset

import (
	"encoding/json"

	"github.com/dball/fieldstate/internal/attribute"
	. "github.com/dball/fieldstate/internal/types"
	"gopkg.in/yaml.v3"
)

// Materializer is a source of attributes that are produced on demand.
type Materializer interface {
	Materialize() ([]Pair, error)
}

// Dump returns the compact form of the set: the compact forms of its attributes
// in order. Each attribute carries its own name.
func (set *Set) Dump() (tuples []any) {
	tuples = make([]any, len(set.attrs))
	for i, attr := range set.attrs {
		tuples[i] = attr.Dump()
	}
	return
}

// Load builds a set from its compact form. Elements may be compact attributes
// or attributes.
func Load(tuples []any) (set *Set, err error) {
	set = withCapacity(len(tuples))
	for i, x := range tuples {
		var attr *Attribute
		switch y := x.(type) {
		case *Attribute:
			attr = y
		case []any:
			attr, err = attribute.Load(y)
			if err != nil {
				set = nil
				return
			}
		default:
			set = nil
			err = NewError("attrset.malformedAttributes", "position", i, "element", x)
			return
		}
		set.Set(attr.Name(), attr)
	}
	return
}

// MarshalJSON encodes the compact form as an array.
func (set *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.attrs)
}

// UnmarshalJSON decodes the compact form.
func (set *Set) UnmarshalJSON(data []byte) (err error) {
	var attrs []*Attribute
	err = json.Unmarshal(data, &attrs)
	if err != nil {
		return
	}
	loaded := withCapacity(len(attrs))
	for i, attr := range attrs {
		if attr == nil {
			err = NewError("attrset.malformedAttributes", "position", i)
			return
		}
		loaded.Set(attr.Name(), attr)
	}
	loaded.null = set.null
	*set = *loaded
	return
}

// MarshalYAML encodes the structured form, a mapping whose attributes key maps
// names to structured attributes.
func (set *Set) MarshalYAML() (any, error) {
	attrs := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, pair := range set.Pairs() {
		encoded, err := pair.Attr.MarshalYAML()
		if err != nil {
			return nil, err
		}
		attrs.Content = append(attrs.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(pair.Name)},
			encoded.(*yaml.Node))
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "attributes"},
		attrs)
	return node, nil
}

// UnmarshalYAML decodes the structured form.
func (set *Set) UnmarshalYAML(node *yaml.Node) (err error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	var attrs *yaml.Node
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "attributes" {
				attrs = node.Content[i+1]
			}
		}
	}
	if attrs == nil || attrs.Kind != yaml.MappingNode {
		err = NewError("attrset.malformedAttributes", "line", node.Line)
		return
	}
	pairs := make([]Pair, 0, len(attrs.Content)/2)
	for i := 0; i+1 < len(attrs.Content); i += 2 {
		attr := &Attribute{}
		err = attrs.Content[i+1].Decode(attr)
		if err != nil {
			return
		}
		pairs = append(pairs, Pair{Name: Name(attrs.Content[i].Value), Attr: attr})
	}
	err = set.InitWith(pairs)
	return
}

// InitWith replaces the contents of the set with the given source, which must be
// a slice of pairs, a map of attributes, or a materializer.
func (set *Set) InitWith(source any) (err error) {
	var loaded *Set
	switch x := source.(type) {
	case []Pair:
		loaded = FromPairs(x)
	case map[Name]*Attribute:
		loaded = FromMap(x)
	case Materializer:
		var pairs []Pair
		pairs, err = x.Materialize()
		if err != nil {
			return
		}
		loaded = FromPairs(pairs)
	default:
		err = NewError("attrset.notAttributes", "source", source)
		return
	}
	loaded.null = set.null
	*set = *loaded
	return
}
