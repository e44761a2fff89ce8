package schemabuilder

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Object is a set of named fields backed by Go functions. A module's query and
// mutation capabilities are Objects.
type Object struct {
	Name        string
	Description string
	Methods     Methods

	order []string
}

// A Methods map represents the set of methods exposed on a Object.
type Methods map[string]*method

type method struct {
	Fn          interface{}
	Description string

	shape *funcShape
}

// FieldFunc exposes a field on an object. The function f can take a number of
// optional arguments:
// func([ctx context.Context], [args struct {}]) (Result, [error])
//
// A posts query field might take nothing:
//    query.FieldFunc("posts", func() []*Post {
//       return posts
//    })
//
// A createPost mutation field might take both a context and arguments:
//    mutation.FieldFunc("createPost", func(ctx context.Context, args struct{
//        Title string
//        Body  string
//    }) (*Post, error) {
//        return store.Create(ctx, args.Title, args.Body)
//    })
//
// An optional description may be passed as the last argument. FieldFunc panics
// when the name is reused or f has an unsupported shape.
func (s *Object) FieldFunc(name string, f interface{}, description ...string) {
	if s.Methods == nil {
		s.Methods = make(Methods)
	}
	if name == "" {
		panic(fmt.Sprintf("empty field name on %s", s.Name))
	}

	desc := ""
	if len(description) > 0 {
		desc = description[0]
	}
	if len(description) > 1 {
		panic("at most one description allowed for FieldFunc")
	}

	if _, ok := s.Methods[name]; ok {
		panic(fmt.Sprintf("duplicate method %s on %s", name, s.Name))
	}

	shape, err := analyzeFunc(f)
	if err != nil {
		panic(fmt.Errorf("bad method %s on %s: %w", name, s.Name, err))
	}

	s.Methods[name] = &method{Fn: f, Description: desc, shape: shape}
	s.order = append(s.order, name)
}

// FieldNames returns the field names in registration order.
func (s *Object) FieldNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// ID is the graphql ID scalar.
type ID string

// funcShape is the validated signature of a FieldFunc function.
type funcShape struct {
	fn         reflect.Value
	hasContext bool
	args       reflect.Type
	out        reflect.Type
	hasError   bool
}

func analyzeFunc(f interface{}) (*funcShape, error) {
	if f == nil {
		return nil, fmt.Errorf("function is nil")
	}
	fn := reflect.ValueOf(f)
	typ := fn.Type()
	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %s", typ)
	}

	shape := &funcShape{fn: fn}
	in := 0
	if in < typ.NumIn() && typ.In(in) == contextType {
		shape.hasContext = true
		in++
	}
	if in < typ.NumIn() {
		argTyp := typ.In(in)
		if argTyp.Kind() != reflect.Struct {
			return nil, fmt.Errorf("arguments must be a struct, got %s", argTyp)
		}
		shape.args = argTyp
		in++
	}
	if in != typ.NumIn() {
		return nil, fmt.Errorf("too many parameters: want [ctx context.Context], [args struct]")
	}

	switch typ.NumOut() {
	case 1:
	case 2:
		if typ.Out(1) != errType {
			return nil, fmt.Errorf("second result must be error, got %s", typ.Out(1))
		}
		shape.hasError = true
	default:
		return nil, fmt.Errorf("must return (result) or (result, error)")
	}
	if typ.Out(0) == errType {
		return nil, fmt.Errorf("first result must not be error")
	}
	shape.out = typ.Out(0)

	return shape, nil
}

// call invokes the function and converts its result into a value graphql-go can
// serialize.
func (s *funcShape) call(ctx context.Context, args reflect.Value) (interface{}, error) {
	in := make([]reflect.Value, 0, 2)
	if s.hasContext {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}
	if s.args != nil {
		in = append(in, args)
	}

	out := s.fn.Call(in)
	if s.hasError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return resultValue(out[0]), nil
}

var (
	idType   = reflect.TypeOf(ID(""))
	timeType = reflect.TypeOf(time.Time{})
)
