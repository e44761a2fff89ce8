package compose_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Dawdaborje/sorobonto-backend/compose"
	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
)

type post struct {
	Title string
}

type Entry struct {
	Title string
}

func capability(module string, register func(o *schemabuilder.Object)) compose.Capability {
	o := &schemabuilder.Object{Name: module}
	register(o)
	return compose.Capability{Module: module, Object: o}
}

func blogCapabilities() (query, mutation compose.Capability) {
	query = capability("blog", func(o *schemabuilder.Object) {
		o.FieldFunc("posts", func() []post {
			return []post{{Title: "first"}}
		})
	})
	mutation = capability("blog", func(o *schemabuilder.Object) {
		o.FieldFunc("createPost", func(args struct{ Title string }) post {
			return post{Title: args.Title}
		})
	})
	return query, mutation
}

func TestComposeWithoutContributions(t *testing.T) {
	schema, err := compose.Compose(nil, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"hello"}, schema.Query().FieldNames())
	owner, ok := schema.Query().Owner("hello")
	require.True(t, ok)
	require.Equal(t, schemabuilder.BuiltinModule, owner)

	require.NotNil(t, schema.Mutation())
	require.Equal(t, "Mutation", schema.Mutation().Name())
	require.Empty(t, schema.Mutation().FieldNames())
	require.Nil(t, schema.Mutation().Object())

	res := schema.Do(context.Background(), compose.Request{Query: `{ hello }`})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]interface{}{"hello": "Hi!"}, res.Data)
}

func TestComposeGreetingOption(t *testing.T) {
	schema, err := compose.Compose(nil, nil, compose.WithGreeting("Hello, world"))
	require.NoError(t, err)

	res := schema.Do(context.Background(), compose.Request{Query: `{ hello }`})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]interface{}{"hello": "Hello, world"}, res.Data)
}

func TestComposeUnion(t *testing.T) {
	blogQuery, blogMutation := blogCapabilities()
	status := capability("status", func(o *schemabuilder.Object) {
		o.FieldFunc("version", func() string { return "1.0.0" })
	})

	schema, err := compose.Compose(
		[]compose.Capability{blogQuery, status},
		[]compose.Capability{blogMutation},
	)
	require.NoError(t, err)

	if diff := pretty.Compare(schema.Query().FieldNames(), []string{"hello", "posts", "version"}); diff != "" {
		t.Errorf("unexpected query fields (-got +want):\n%s", diff)
	}
	require.Equal(t, []string{"createPost"}, schema.Mutation().FieldNames())
	owner, _ := schema.Query().Owner("version")
	require.Equal(t, "status", owner)
	require.True(t, schema.Mutation().Has("createPost"))
	require.False(t, schema.Mutation().Has("posts"))

	res := schema.Do(context.Background(), compose.Request{Query: `{ hello posts { title } version }`})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]interface{}{
		"hello":   "Hi!",
		"posts":   []interface{}{map[string]interface{}{"title": "first"}},
		"version": "1.0.0",
	}, res.Data)

	res = schema.Do(context.Background(), compose.Request{
		Query:     `mutation Create($title: String!) { createPost(title: $title) { title } }`,
		Variables: map[string]interface{}{"title": "second"},
	})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]interface{}{
		"createPost": map[string]interface{}{"title": "second"},
	}, res.Data)
}

func TestComposeFieldCollision(t *testing.T) {
	blogQuery, _ := blogCapabilities()
	news := capability("news", func(o *schemabuilder.Object) {
		o.FieldFunc("posts", func() []string { return nil })
	})

	var logs bytes.Buffer
	schema, err := compose.Compose(
		[]compose.Capability{blogQuery, news},
		nil,
		compose.WithLogger(zerolog.New(&logs)),
	)
	require.Nil(t, schema)

	var compErr *compose.CompositionError
	require.True(t, errors.As(err, &compErr), "got %v", err)
	require.Equal(t, []compose.Conflict{
		{Root: "Query", Field: "posts", Modules: []string{"blog", "news"}},
	}, compErr.Conflicts)
	require.Contains(t, err.Error(), "posts")
	require.Contains(t, err.Error(), "blog")
	require.Contains(t, err.Error(), "news")
	require.Contains(t, logs.String(), `"level":"error"`)
	require.Contains(t, logs.String(), `"field":"posts"`)
}

func TestComposeCollisionWithBuiltin(t *testing.T) {
	greeter := capability("greeter", func(o *schemabuilder.Object) {
		o.FieldFunc("hello", func() string { return "shadowed" })
	})

	_, err := compose.Compose([]compose.Capability{greeter}, nil)

	var compErr *compose.CompositionError
	require.True(t, errors.As(err, &compErr), "got %v", err)
	require.Equal(t, []compose.Conflict{
		{Root: "Query", Field: "hello", Modules: []string{schemabuilder.BuiltinModule, "greeter"}},
	}, compErr.Conflicts)
}

func TestComposeCollectsEveryConflict(t *testing.T) {
	a := capability("a", func(o *schemabuilder.Object) {
		o.FieldFunc("x", func() string { return "" })
	})
	b := capability("b", func(o *schemabuilder.Object) {
		o.FieldFunc("x", func() string { return "" })
	})
	c := capability("c", func(o *schemabuilder.Object) {
		o.FieldFunc("x", func() string { return "" })
	})
	ma := capability("a", func(o *schemabuilder.Object) {
		o.FieldFunc("run", func() bool { return true })
	})
	mb := capability("b", func(o *schemabuilder.Object) {
		o.FieldFunc("run", func() bool { return true })
	})

	_, err := compose.Compose([]compose.Capability{a, b, c}, []compose.Capability{ma, mb})

	var compErr *compose.CompositionError
	require.True(t, errors.As(err, &compErr), "got %v", err)
	require.Equal(t, []compose.Conflict{
		{Root: "Query", Field: "x", Modules: []string{"a", "b", "c"}},
		{Root: "Mutation", Field: "run", Modules: []string{"a", "b"}},
	}, compErr.Conflicts)
}

func TestComposeTypeNameConflict(t *testing.T) {
	first := capability("first", func(o *schemabuilder.Object) {
		o.FieldFunc("one", func() *Entry { return nil })
	})
	second := capability("second", func(o *schemabuilder.Object) {
		o.FieldFunc("entry", func() *struct{ Body string } { return nil })
	})

	_, err := compose.Compose([]compose.Capability{first, second}, nil)

	var compErr *compose.CompositionError
	require.True(t, errors.As(err, &compErr), "got %v", err)
	require.Equal(t, []compose.Conflict{
		{Root: compose.TypeRoot, Field: "Entry", Modules: []string{"first", "second"}},
	}, compErr.Conflicts)
}

func TestComposeUnsupportedField(t *testing.T) {
	bad := capability("bad", func(o *schemabuilder.Object) {
		o.FieldFunc("stream", func() chan string { return nil })
	})

	_, err := compose.Compose([]compose.Capability{bad}, nil)
	require.Error(t, err)

	var compErr *compose.CompositionError
	require.False(t, errors.As(err, &compErr))
	require.Contains(t, err.Error(), "module bad")
}

func TestComposeIsDeterministic(t *testing.T) {
	blogQuery, blogMutation := blogCapabilities()
	status := capability("status", func(o *schemabuilder.Object) {
		o.FieldFunc("version", func() string { return "1.0.0" })
		o.FieldFunc("uptime", func() int { return 1 })
	})

	compose1, err := compose.Compose([]compose.Capability{blogQuery, status}, []compose.Capability{blogMutation})
	require.NoError(t, err)
	compose2, err := compose.Compose([]compose.Capability{blogQuery, status}, []compose.Capability{blogMutation})
	require.NoError(t, err)

	require.Equal(t, compose1.Query().FieldNames(), compose2.Query().FieldNames())
	require.Equal(t, compose1.Mutation().FieldNames(), compose2.Mutation().FieldNames())
	require.Equal(t, []string{"hello", "posts", "version", "uptime"}, compose1.Query().FieldNames())
}

func TestComposeSkipsNilObjects(t *testing.T) {
	schema, err := compose.Compose([]compose.Capability{{Module: "empty"}}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"hello"}, schema.Query().FieldNames())
}
