package schemabuilder

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/iancoleman/strcase"
)

// argParser fills dest from a value already coerced by graphql-go.
type argParser struct {
	FromJSON func(value interface{}, dest reflect.Value) error
	Type     reflect.Type
}

type argField struct {
	name        string
	index       []int
	typ         graphql.Input
	parser      *argParser
	description string
}

// arguments constructs the field arguments and parser for the args struct of a
// FieldFunc. For eg:
// obj.FieldFunc("post", func(ctx context.Context, args struct{
// 	ID schemabuilder.ID
// }) *Post)
func (b *Builder) arguments(typ reflect.Type, hint string) (graphql.FieldConfigArgument, *argParser, error) {
	fields, err := b.inputFields(typ, hint)
	if err != nil {
		return nil, nil, err
	}

	args := make(graphql.FieldConfigArgument, len(fields))
	for _, f := range fields {
		args[f.name] = &graphql.ArgumentConfig{
			Type:        f.typ,
			Description: f.description,
		}
	}
	return args, structParser(typ, fields), nil
}

// inputFields generates the parser for each field of an input struct.
func (b *Builder) inputFields(typ reflect.Type, hint string) ([]argField, error) {
	var fields []argField
	seen := make(map[string]bool)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Anonymous {
			return nil, fmt.Errorf("bad arg type %s: anonymous fields not supported", typ)
		}

		info := parseGraphQLFieldInfo(field)
		if info.Skipped {
			continue
		}
		if seen[info.Name] {
			return nil, fmt.Errorf("bad arg type %s: duplicate field %s", typ, info.Name)
		}
		seen[info.Name] = true

		in, parser, err := b.inputType(field.Type, hint+strcase.ToCamel(info.Name))
		if err != nil {
			return nil, fmt.Errorf("bad arg type %s: field %s: %w", typ, field.Name, err)
		}
		fields = append(fields, argField{
			name:        info.Name,
			index:       field.Index,
			typ:         in,
			parser:      parser,
			description: info.Description,
		})
	}
	return fields, nil
}

func structParser(typ reflect.Type, fields []argField) *argParser {
	return &argParser{
		FromJSON: func(value interface{}, dest reflect.Value) error {
			if value == nil {
				return nil
			}
			asMap, ok := value.(map[string]interface{})
			if !ok {
				return errors.New("not an object")
			}

			for _, f := range fields {
				v, ok := asMap[f.name]
				if !ok {
					continue
				}
				if err := f.parser.FromJSON(v, dest.FieldByIndex(f.index)); err != nil {
					return fmt.Errorf("%s: %w", f.name, err)
				}
			}
			return nil
		},
		Type: typ,
	}
}

// inputType maps a Go type to a graphql-go input type with the same nullability
// rules as outputType.
func (b *Builder) inputType(typ reflect.Type, hint string) (graphql.Input, *argParser, error) {
	if typ.Kind() == reflect.Ptr {
		base, parser, err := b.baseInput(typ.Elem(), hint)
		if err != nil {
			return nil, nil, err
		}
		return base, wrapPtrParser(parser), nil
	}

	base, parser, err := b.baseInput(typ, hint)
	if err != nil {
		return nil, nil, err
	}
	if typ.Kind() == reflect.Slice {
		return base, parser, nil
	}
	return graphql.NewNonNull(base), parser, nil
}

func (b *Builder) baseInput(typ reflect.Type, hint string) (graphql.Input, *argParser, error) {
	if scalar, ok := scalarFor(typ); ok {
		return scalar, scalarParser(typ), nil
	}
	switch typ.Kind() {
	case reflect.Slice:
		return b.sliceInput(typ, hint)
	case reflect.Struct:
		return b.inputObject(typ, hint)
	default:
		return nil, nil, fmt.Errorf("bad arg type %s: should be struct, scalar, pointer, or a slice", typ)
	}
}

func (b *Builder) inputObject(typ reflect.Type, hint string) (graphql.Input, *argParser, error) {
	if entry, ok := b.inputs[typ]; ok {
		return entry.obj, entry.parser, nil
	}

	name := typeName(typ, hint)
	if err := b.claim(name, typ, true); err != nil {
		return nil, nil, err
	}

	fieldMap := graphql.InputObjectConfigFieldMap{}
	obj := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return fieldMap
		}),
	})
	// The parser is filled in after the fields so recursive inputs share it.
	parser := &argParser{Type: typ}
	b.inputs[typ] = &inputEntry{obj: obj, parser: parser}

	fields, err := b.inputFields(typ, name)
	if err != nil {
		return nil, nil, err
	}
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("bad arg type %s: no exported fields", typ)
	}
	for _, f := range fields {
		fieldMap[f.name] = &graphql.InputObjectFieldConfig{
			Type:        f.typ,
			Description: f.description,
		}
	}
	parser.FromJSON = structParser(typ, fields).FromJSON

	return obj, parser, nil
}

// sliceInput generates the parser for a slice input by generating the parser for underlying object and using it to fill the values in list
func (b *Builder) sliceInput(typ reflect.Type, hint string) (graphql.Input, *argParser, error) {
	elem, inner, err := b.inputType(typ.Elem(), hint)
	if err != nil {
		return nil, nil, err
	}

	return graphql.NewList(elem), &argParser{
		FromJSON: func(value interface{}, dest reflect.Value) error {
			if value == nil {
				return nil
			}
			asSlice, ok := value.([]interface{})
			if !ok {
				return errors.New("not a list")
			}

			out := reflect.MakeSlice(typ, len(asSlice), len(asSlice))
			for i, v := range asSlice {
				if err := inner.FromJSON(v, out.Index(i)); err != nil {
					return err
				}
			}
			dest.Set(out)
			return nil
		},
		Type: typ,
	}, nil
}

func wrapPtrParser(inner *argParser) *argParser {
	return &argParser{
		FromJSON: func(value interface{}, dest reflect.Value) error {
			if value == nil {
				dest.Set(reflect.Zero(dest.Type()))
				return nil
			}

			ptr := reflect.New(dest.Type().Elem())
			if err := inner.FromJSON(value, ptr.Elem()); err != nil {
				return err
			}
			dest.Set(ptr)
			return nil
		},
		Type: reflect.PtrTo(inner.Type),
	}
}

func scalarParser(typ reflect.Type) *argParser {
	return &argParser{
		FromJSON: func(value interface{}, dest reflect.Value) error {
			if value == nil {
				return nil
			}
			if typ == timeType {
				t, err := asTime(value)
				if err != nil {
					return err
				}
				dest.Set(reflect.ValueOf(t))
				return nil
			}

			switch typ.Kind() {
			case reflect.String:
				s, ok := value.(string)
				if !ok {
					return errors.New("not a string")
				}
				dest.SetString(s)
			case reflect.Bool:
				v, ok := value.(bool)
				if !ok {
					return errors.New("not a bool")
				}
				dest.SetBool(v)
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				n, err := asInt64(value)
				if err != nil {
					return err
				}
				if dest.OverflowInt(n) {
					return fmt.Errorf("%d overflows %s", n, typ)
				}
				dest.SetInt(n)
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
				n, err := asInt64(value)
				if err != nil {
					return err
				}
				if n < 0 || dest.OverflowUint(uint64(n)) {
					return fmt.Errorf("%d overflows %s", n, typ)
				}
				dest.SetUint(uint64(n))
			case reflect.Float32, reflect.Float64:
				f, err := asFloat64(value)
				if err != nil {
					return err
				}
				dest.SetFloat(f)
			default:
				return fmt.Errorf("unsupported scalar %s", typ)
			}
			return nil
		},
		Type: typ,
	}
}

func asInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	default:
		return 0, errors.New("not a number")
	}
}

func asFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, errors.New("not a number")
	}
}

func asTime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, errors.New("nil time")
		}
		return *v, nil
	case string:
		return time.Parse(time.RFC3339, v)
	default:
		return time.Time{}, errors.New("not a time")
	}
}
