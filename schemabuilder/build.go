package schemabuilder

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/iancoleman/strcase"
)

// BuiltinModule owns the names reserved by the schema itself.
const BuiltinModule = "builtin"

// Field is a named graphql-go field definition built from a FieldFunc.
type Field struct {
	Name       string
	Definition *graphql.Field
}

// TypeConflictError reports a GraphQL type name claimed by two different Go
// types.
type TypeConflictError struct {
	Name    string
	Modules []string
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("type %s defined by modules %s", e.Name, strings.Join(e.Modules, ", "))
}

type typeOwner struct {
	typ    reflect.Type
	input  bool
	module string
}

type inputEntry struct {
	obj    *graphql.InputObject
	parser *argParser
}

// Builder converts Objects into graphql-go fields. Named types are shared by
// every field built with the same Builder, so one Builder is used per schema.
type Builder struct {
	outputs map[reflect.Type]*graphql.Object
	inputs  map[reflect.Type]*inputEntry
	names   map[string]typeOwner
	module  string
}

// NewBuilder creates a Builder with the root and scalar names reserved.
func NewBuilder() *Builder {
	b := &Builder{
		outputs: make(map[reflect.Type]*graphql.Object),
		inputs:  make(map[reflect.Type]*inputEntry),
		names:   make(map[string]typeOwner),
	}
	for _, name := range []string{"Query", "Mutation", "Subscription", "String", "Int", "Float", "Boolean", "ID", "DateTime"} {
		b.names[name] = typeOwner{module: BuiltinModule}
	}
	return b
}

// Fields builds the graphql-go definitions of every field on o, in registration
// order. Named types created along the way are attributed to module.
func (b *Builder) Fields(module string, o *Object) ([]Field, error) {
	b.module = module

	names := o.fieldOrder()
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		def, err := b.rootField(name, o.Methods[name])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Definition: def})
	}
	return fields, nil
}

// fieldOrder returns registration order, followed by any methods assigned to the
// Methods map directly, sorted by name.
func (s *Object) fieldOrder() []string {
	names := s.FieldNames()
	if len(names) == len(s.Methods) {
		return names
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
	}
	var extra []string
	for name := range s.Methods {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func (b *Builder) rootField(name string, m *method) (*graphql.Field, error) {
	shape := m.shape
	if shape == nil {
		var err error
		if shape, err = analyzeFunc(m.Fn); err != nil {
			return nil, err
		}
	}

	out, err := b.outputType(shape.out, name)
	if err != nil {
		return nil, err
	}

	field := &graphql.Field{
		Name:        name,
		Type:        out,
		Description: m.Description,
	}

	var parser *argParser
	if shape.args != nil {
		field.Args, parser, err = b.arguments(shape.args, name)
		if err != nil {
			return nil, err
		}
	}

	field.Resolve = func(p graphql.ResolveParams) (interface{}, error) {
		var args reflect.Value
		if shape.args != nil {
			args = reflect.New(shape.args).Elem()
			if err := parser.FromJSON(p.Args, args); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		return shape.call(p.Context, args)
	}
	return field, nil
}

// outputType maps a Go type to a graphql-go output type. Pointers and slices are
// nullable; every other value is non-null.
func (b *Builder) outputType(typ reflect.Type, hint string) (graphql.Output, error) {
	if typ.Kind() == reflect.Ptr {
		return b.baseOutput(typ.Elem(), hint)
	}
	base, err := b.baseOutput(typ, hint)
	if err != nil {
		return nil, err
	}
	if typ.Kind() == reflect.Slice {
		return base, nil
	}
	return graphql.NewNonNull(base), nil
}

func (b *Builder) baseOutput(typ reflect.Type, hint string) (graphql.Output, error) {
	if scalar, ok := scalarFor(typ); ok {
		return scalar, nil
	}
	switch typ.Kind() {
	case reflect.Slice:
		elem, err := b.outputType(typ.Elem(), hint)
		if err != nil {
			return nil, err
		}
		return graphql.NewList(elem), nil
	case reflect.Struct:
		return b.object(typ, hint)
	default:
		return nil, fmt.Errorf("unsupported output type %s", typ)
	}
}

func (b *Builder) object(typ reflect.Type, hint string) (*graphql.Object, error) {
	if obj, ok := b.outputs[typ]; ok {
		return obj, nil
	}

	name := typeName(typ, hint)
	if err := b.claim(name, typ, false); err != nil {
		return nil, err
	}

	fields := graphql.Fields{}
	obj := graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return fields
		}),
	})
	// Cache before walking fields so self-referencing types terminate.
	b.outputs[typ] = obj

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Anonymous {
			return nil, fmt.Errorf("bad type %s: anonymous fields not supported", typ)
		}
		info := parseGraphQLFieldInfo(f)
		if info.Skipped {
			continue
		}
		if _, ok := fields[info.Name]; ok {
			return nil, fmt.Errorf("bad type %s: duplicate field %s", typ, info.Name)
		}

		out, err := b.outputType(f.Type, name+strcase.ToCamel(info.Name))
		if err != nil {
			return nil, fmt.Errorf("bad type %s: field %s: %w", typ, f.Name, err)
		}
		fields[info.Name] = &graphql.Field{
			Name:              info.Name,
			Type:              out,
			Description:       info.Description,
			DeprecationReason: info.DeprecationReason,
			Resolve:           structFieldResolver(f.Index),
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("bad type %s: no exported fields", typ)
	}
	return obj, nil
}

func (b *Builder) claim(name string, typ reflect.Type, input bool) error {
	if owner, ok := b.names[name]; ok {
		if owner.typ == typ && owner.input == input {
			return nil
		}
		return &TypeConflictError{Name: name, Modules: []string{owner.module, b.module}}
	}
	b.names[name] = typeOwner{typ: typ, input: input, module: b.module}
	return nil
}

func structFieldResolver(index []int) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		v := reflect.ValueOf(p.Source)
		for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
			if v.IsNil() {
				return nil, nil
			}
			v = v.Elem()
		}
		if !v.IsValid() {
			return nil, nil
		}
		if v.Kind() != reflect.Struct {
			return nil, fmt.Errorf("unexpected source of type %s", v.Type())
		}
		return resultValue(v.FieldByIndex(index)), nil
	}
}

func scalarFor(typ reflect.Type) (*graphql.Scalar, bool) {
	switch typ {
	case idType:
		return graphql.ID, true
	case timeType:
		return graphql.DateTime, true
	}
	switch typ.Kind() {
	case reflect.String:
		return graphql.String, true
	case reflect.Bool:
		return graphql.Boolean, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return graphql.Int, true
	case reflect.Float32, reflect.Float64:
		return graphql.Float, true
	}
	return nil, false
}

// resultValue unwraps named scalar types into the basic values graphql-go
// serializes. Structs are returned as-is for their field resolvers.
func resultValue(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Interface || v.Elem().Kind() != reflect.Struct {
			return resultValue(v.Elem())
		}
		return v.Interface()
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		out := make([]interface{}, v.Len())
		for i := range out {
			out[i] = resultValue(v.Index(i))
		}
		return out
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return v.Interface()
}
