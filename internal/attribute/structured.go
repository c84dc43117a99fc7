package attribute

import (
	"reflect"
	"strings"

	"github.com/dball/fieldstate/internal/sys"
	. "github.com/dball/fieldstate/internal/types"
	"gopkg.in/yaml.v3"
)

// TagPrefix prefixes the kind label in the tag of the structured form.
const TagPrefix = "!attribute:"

// CastTag marks raw values of the go type of their type's cast values.
const CastTag = "!cast"

// Tag returns the tag of the structured form of the attribute.
func (attr *Attribute) Tag() string {
	return TagPrefix + attr.source.Kind.String()
}

// MarshalYAML encodes the structured form: a mapping tagged with the kind of the
// attribute's source.
func (attr *Attribute) MarshalYAML() (any, error) {
	return attr.yamlNode()
}

func (attr *Attribute) yamlNode() (node *yaml.Node, err error) {
	node = &yaml.Node{Kind: yaml.MappingNode, Tag: attr.Tag()}
	err = addScalar(node, "name", string(attr.name))
	if err != nil {
		return
	}
	if attr.typ != nil {
		ident, ok := sys.TypeIdent(attr.typ)
		if !ok {
			err = NewError("attribute.unknownType", "name", attr.name, "type", attr.typ)
			return
		}
		err = addScalar(node, "type", ident)
		if err != nil {
			return
		}
	}
	raw := attr.ValueBeforeTypeCast()
	if raw != nil {
		err = addScalar(node, "value_before_type_cast", raw)
		if err != nil {
			return
		}
		if isCastValue(raw, attr.typ) {
			node.Content[len(node.Content)-1].Tag = CastTag
		}
	}
	original := attr.OriginalAttribute()
	if original != nil {
		var originalNode *yaml.Node
		originalNode, err = original.yamlNode()
		if err != nil {
			return
		}
		node.Content = append(node.Content, keyNode("original_attribute"), originalNode)
	}
	if attr.HasBeenRead() {
		value, _ := attr.value.get()
		err = addScalar(node, "value", value)
	}
	return
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func addScalar(node *yaml.Node, key string, value any) (err error) {
	valueNode := &yaml.Node{}
	err = valueNode.Encode(value)
	if err != nil {
		return
	}
	node.Content = append(node.Content, keyNode(key), valueNode)
	return
}

// UnmarshalYAML decodes the structured form. Records tagged FromUser or
// UserProvidedDefault without an original attribute decode as user provided
// defaults without lineage.
func (attr *Attribute) UnmarshalYAML(node *yaml.Node) (err error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		err = NewError("attribute.notMapping", "line", node.Line, "tag", node.Tag)
		return
	}
	label, ok := strings.CutPrefix(node.Tag, TagPrefix)
	if !ok {
		err = NewError("attribute.unrecognizedTag", "tag", node.Tag, "line", node.Line)
		return
	}
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}
	var name string
	nameNode, ok := fields["name"]
	if !ok {
		err = NewError("attribute.missingField", "field", "name", "line", node.Line)
		return
	}
	err = nameNode.Decode(&name)
	if err != nil {
		return
	}
	var typ Type
	typeNode, ok := fields["type"]
	if ok {
		var ident string
		err = typeNode.Decode(&ident)
		if err != nil {
			return
		}
		typ, err = resolveIdent(ident)
		if err != nil {
			return
		}
	}
	var source Source
	switch label {
	case "Uninitialized":
		*attr = *Uninitialized(Name(name), typ)
		return
	case "FromDatabase":
		source.Kind = KindFromDatabase
	case "WithCastValue":
		source.Kind = KindPreCast
	case "FromUser", "UserProvidedDefault":
		originalNode, ok := fields["original_attribute"]
		if !ok {
			source.Kind = KindUserProvidedDefault
			break
		}
		original := &Attribute{}
		err = original.UnmarshalYAML(originalNode)
		if err != nil {
			return
		}
		source.Original = original
		if label == "FromUser" {
			source.Kind = KindFromUser
		} else {
			source.Kind = KindUserProvidedDefault
		}
	default:
		err = NewError("attribute.unrecognizedTag", "tag", node.Tag, "line", node.Line)
		return
	}
	var raw any
	rawNode, ok := fields["value_before_type_cast"]
	if ok {
		raw, err = decodeRaw(rawNode, typ)
		if err != nil {
			return
		}
	}
	decoded := &Attribute{
		name:   Name(name),
		typ:    typ,
		raw:    &RawValue{value: raw},
		source: source,
	}
	valueNode, ok := fields["value"]
	if ok {
		var value any
		value, err = decodeValue(valueNode, typ)
		if err != nil {
			return
		}
		if value != nil {
			decoded.value.set(value)
		}
	}
	*attr = *decoded
	return
}

// decodeValue decodes a cached cast value, into its go type if the type knows it.
func decodeValue(node *yaml.Node, typ Type) (value any, err error) {
	if node.Tag == "!!null" {
		return
	}
	valueType, ok := typ.(ValueType)
	if !ok {
		err = node.Decode(&value)
		return
	}
	ptr := reflect.New(valueType.GoType())
	err = node.Decode(ptr.Interface())
	if err != nil {
		return
	}
	value = ptr.Elem().Interface()
	return
}

// decodeRaw decodes a raw value. Raw values tagged as cast values decode to the
// type's go type.
func decodeRaw(node *yaml.Node, typ Type) (raw any, err error) {
	if node.Tag != CastTag {
		err = node.Decode(&raw)
		return
	}
	untagged := *node
	untagged.Tag = ""
	raw, err = decodeValue(&untagged, typ)
	return
}
