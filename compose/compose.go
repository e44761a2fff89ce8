// Package compose merges the query and mutation capabilities of many modules
// into one GraphQL schema.
//
// Fields are unioned by name. A name defined by two contributors, built-ins
// included, is a conflict and composition fails with a *CompositionError; no
// contributor silently overrides another.
package compose

import (
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
)

const (
	// DefaultGreeting is the value of the built-in hello field.
	DefaultGreeting = "Hi!"

	// TypeRoot is the Conflict.Root of a clash between GraphQL type names.
	TypeRoot = "type"
)

// Capability is the query or mutation object contributed by one module.
type Capability struct {
	Module string
	Object *schemabuilder.Object
}

// Option configures Compose.
type Option func(*options)

type options struct {
	greeting string
	logger   zerolog.Logger
}

// WithGreeting sets the value returned by the built-in hello field.
func WithGreeting(greeting string) Option {
	return func(o *options) {
		o.greeting = greeting
	}
}

// WithLogger sets the logger composition records are written to.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Compose builds the schema from the query and mutation capabilities, each in
// module order. The query root always carries the built-in fields.
func Compose(queries, mutations []Capability, opts ...Option) (*Schema, error) {
	o := options{greeting: DefaultGreeting, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	b := schemabuilder.NewBuilder()

	query, queryConflicts, err := buildRoot(b, "Query", builtinQueryFields(o.greeting), queries)
	if err != nil {
		o.logger.Error().Err(err).Msg("schema composition failed")
		return nil, err
	}
	mutation, mutationConflicts, err := buildRoot(b, "Mutation", nil, mutations)
	if err != nil {
		o.logger.Error().Err(err).Msg("schema composition failed")
		return nil, err
	}

	if conflicts := append(queryConflicts, mutationConflicts...); len(conflicts) > 0 {
		err := &CompositionError{Conflicts: conflicts}
		for _, c := range conflicts {
			o.logger.Error().
				Str("root", c.Root).
				Str("field", c.Field).
				Strs("modules", c.Modules).
				Msg("conflicting schema definition")
		}
		return nil, err
	}

	cfg := graphql.SchemaConfig{Query: query.object}
	if mutation.object != nil {
		cfg.Mutation = mutation.object
	}
	executable, err := graphql.NewSchema(cfg)
	if err != nil {
		err = fmt.Errorf("compose: build schema: %w", err)
		o.logger.Error().Err(err).Msg("schema composition failed")
		return nil, err
	}

	o.logger.Debug().
		Strs("query_fields", query.fields).
		Strs("mutation_fields", mutation.fields).
		Msg("schema composed")

	return &Schema{
		query:      query,
		mutation:   mutation,
		executable: executable,
	}, nil
}

func buildRoot(b *schemabuilder.Builder, name string, builtins []schemabuilder.Field, caps []Capability) (*Root, []Conflict, error) {
	root := &Root{name: name, owners: make(map[string]string)}
	defs := graphql.Fields{}
	definedBy := make(map[string][]string)

	add := func(module string, f schemabuilder.Field) {
		if _, ok := definedBy[f.Name]; !ok {
			root.fields = append(root.fields, f.Name)
			root.owners[f.Name] = module
			defs[f.Name] = f.Definition
		}
		definedBy[f.Name] = append(definedBy[f.Name], module)
	}

	for _, f := range builtins {
		add(schemabuilder.BuiltinModule, f)
	}

	var conflicts []Conflict
	for _, c := range caps {
		if c.Object == nil {
			continue
		}
		fields, err := b.Fields(c.Module, c.Object)
		if err != nil {
			var typeConflict *schemabuilder.TypeConflictError
			if errors.As(err, &typeConflict) {
				conflicts = append(conflicts, Conflict{Root: TypeRoot, Field: typeConflict.Name, Modules: typeConflict.Modules})
				continue
			}
			return nil, nil, fmt.Errorf("compose: module %s: %s.%w", c.Module, name, err)
		}
		for _, f := range fields {
			add(c.Module, f)
		}
	}

	for _, field := range root.fields {
		if modules := definedBy[field]; len(modules) > 1 {
			conflicts = append(conflicts, Conflict{Root: name, Field: field, Modules: modules})
		}
	}

	if len(defs) > 0 {
		root.object = graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: defs})
	}
	return root, conflicts, nil
}

func builtinQueryFields(greeting string) []schemabuilder.Field {
	return []schemabuilder.Field{
		{
			Name: "hello",
			Definition: &graphql.Field{
				Name:        "hello",
				Type:        graphql.String,
				Description: "A static greeting, present whatever modules are installed.",
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return greeting, nil
				},
			},
		},
	}
}
