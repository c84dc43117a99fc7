// Package record contains the public record types and functions for fieldstate.
package record

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/dball/fieldstate/internal/attribute"
	"github.com/dball/fieldstate/internal/attrset"
	"github.com/dball/fieldstate/internal/structs/assembler"
	"github.com/dball/fieldstate/internal/structs/models"
	"github.com/dball/fieldstate/internal/structs/schemas"
	"github.com/dball/fieldstate/internal/structs/shredder"
	"github.com/dball/fieldstate/internal/sys"
	"github.com/dball/fieldstate/internal/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config configures a schema. Zero values take their defaults.
type Config struct {
	// Logger receives record lifecycle events. The default is the global logger.
	Logger *zap.Logger
	// DefaultType is the type of loaded values whose names are not declared.
	DefaultType types.Type
	// Defaults are the raw values of new records, by name. A value that is a
	// func() any is called when the value is first needed, once per record.
	Defaults map[types.Name]any
	// Primary names the attribute identifying records. Records loaded without
	// it hold it as a stored nil, unless it has a default. NewSchema takes it
	// from the primary directive of the struct.
	Primary types.Name
}

var defaultConfig Config = Config{
	DefaultType: sys.Value,
}

// Schema declares the names and types of the attributes of records.
type Schema struct {
	types     []attrset.TypePair
	builder   *attrset.Builder
	shredder  shredder.Shredder
	assembler *assembler.Assembler
	logger    *zap.Logger
}

// sharedAnalyzer caches the struct models of all schemas.
var sharedAnalyzer = models.BuildCachingAnalyzer()

// NewSchema returns a schema of the attr tagged fields of the given struct or
// struct pointer.
func NewSchema(x any, config Config) (schema *Schema, err error) {
	typ := reflect.TypeOf(x)
	if typ == nil {
		err = types.NewError("record.notStruct")
		return
	}
	pairs, err := schemas.Analyze(sharedAnalyzer, typ)
	if err != nil {
		return
	}
	model, err := sharedAnalyzer.Analyze(typ)
	if err != nil {
		return
	}
	primary, ok := model.Primary()
	if ok && config.Primary == "" {
		config.Primary = primary.Name
	}
	typ = model.Type
	if config.Logger == nil {
		config.Logger = zap.L()
	}
	config.Logger = config.Logger.With(zap.String("schema", typ.String()))
	schema = NewSchemaFromTypes(pairs, config)
	return
}

// NewSchemaFromTypes returns a schema of the given names and types.
func NewSchemaFromTypes(pairs []attrset.TypePair, config Config) (schema *Schema) {
	logger := config.Logger
	if logger == nil {
		logger = zap.L()
	}
	defaultType := config.DefaultType
	if defaultType == nil {
		defaultType = defaultConfig.DefaultType
	}
	defaults := make(map[types.Name]*attrset.Attribute, len(config.Defaults))
	for _, pair := range pairs {
		raw, ok := config.Defaults[pair.Name]
		switch {
		case ok:
			defaults[pair.Name] = attribute.UserProvidedDefault(
				pair.Name, attribute.MaybeDeferred(raw), pair.Type, attribute.Uninitialized(pair.Name, pair.Type))
		case pair.Name == config.Primary:
			defaults[pair.Name] = attribute.FromDatabase(pair.Name, nil, pair.Type)
		}
	}
	builder := attrset.NewBuilder(pairs, attrset.BuilderConfig{
		DefaultType: defaultType,
		Defaults:    defaults,
	})
	schema = &Schema{
		types:     pairs,
		builder:   builder,
		shredder:  shredder.NewShredder(sharedAnalyzer),
		assembler: assembler.NewAssembler(sharedAnalyzer),
		logger:    logger,
	}
	return
}

// Types returns the declared names and types in order.
func (schema *Schema) Types() []attrset.TypePair {
	return schema.types
}

func (schema *Schema) record(attrs *attrset.Set) *Record {
	return &Record{schema: schema, attrs: attrs}
}

// New returns a record whose declared attributes hold their defaults, or are
// uninitialized if they have none.
func (schema *Schema) New() *Record {
	return schema.record(schema.builder.BuildFromDatabase(nil, nil))
}

// Load returns a record of stored values. Declared names without values hold
// their defaults, or are uninitialized.
func (schema *Schema) Load(values attrset.Fields) (rec *Record) {
	rec = schema.record(schema.builder.BuildFromDatabase(values, nil))
	schema.logger.Debug("record: loaded", zap.Int("values", len(values)), zap.Int("attributes", rec.attrs.Len()))
	return
}

// LoadMap returns a record of stored values given by name. The values are
// ordered by name, followed by the declared names without values.
func (schema *Schema) LoadMap(values map[types.Name]any) *Record {
	return schema.Load(attrset.FieldsFromMap(values))
}

// LoadStruct returns a record of the attr tagged fields of the struct as stored values.
func (schema *Schema) LoadStruct(x any) (rec *Record, err error) {
	values, err := schema.shredder.Shred(x)
	if err != nil {
		return
	}
	rec = schema.Load(values)
	return
}

// FromJSON returns a record decoded from the compact form of its attributes.
func (schema *Schema) FromJSON(data []byte) (rec *Record, err error) {
	attrs := &attrset.Set{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	err = decoder.Decode(attrs)
	if err != nil {
		return
	}
	rec = schema.record(attrs)
	return
}

// FromYAML returns a record decoded from the structured form of its attributes.
func (schema *Schema) FromYAML(data []byte) (rec *Record, err error) {
	attrs := &attrset.Set{}
	err = yaml.Unmarshal(data, attrs)
	if err != nil {
		return
	}
	rec = schema.record(attrs)
	return
}
