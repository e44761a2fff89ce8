package blog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dawdaborje/sorobonto-backend/compose"
	"github.com/Dawdaborje/sorobonto-backend/registry"
	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	posts, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, posts)

	first, err := store.Create(ctx, "  First  ", "hello")
	require.NoError(t, err)
	require.Equal(t, "First", first.Title)
	require.NotEmpty(t, first.ID)
	second, err := store.Create(ctx, "Second", "")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	_, err = store.Create(ctx, " ", "body")
	require.Error(t, err)

	got, err := store.Get(ctx, string(first.ID))
	require.NoError(t, err)
	require.Equal(t, first, got)

	_, err = store.Get(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	posts, err = store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []*Post{second, first}, posts)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing", "blog.db"))
	require.Error(t, err)
}

func TestSchema(t *testing.T) {
	ctx := context.Background()
	sb := schemabuilder.NewSchema()
	Register(sb, openStore(t))
	query, mutation := sb.Capabilities()

	schema, err := compose.Compose(
		[]compose.Capability{{Module: ModuleID, Object: query}},
		[]compose.Capability{{Module: ModuleID, Object: mutation}},
	)
	require.NoError(t, err)
	require.Equal(t, []string{"hello", "posts", "post"}, schema.Query().FieldNames())
	require.Equal(t, []string{"createPost"}, schema.Mutation().FieldNames())

	res := schema.Do(ctx, compose.Request{
		Query:     `mutation ($title: String!, $body: String) { createPost(title: $title, body: $body) { id title body } }`,
		Variables: map[string]interface{}{"title": "Hello", "body": "World"},
	})
	require.Empty(t, res.Errors)
	created := res.Data.(map[string]interface{})["createPost"].(map[string]interface{})
	require.Equal(t, "Hello", created["title"])
	require.Equal(t, "World", created["body"])
	id := created["id"].(string)

	res = schema.Do(ctx, compose.Request{
		Query:     `query ($id: ID!) { post(id: $id) { title } missing: post(id: "nope") { title } posts { id } }`,
		Variables: map[string]interface{}{"id": id},
	})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]interface{}{
		"post":    map[string]interface{}{"title": "Hello"},
		"missing": nil,
		"posts":   []interface{}{map[string]interface{}{"id": id}},
	}, res.Data)

	res = schema.Do(ctx, compose.Request{Query: `mutation { createPost(title: "") { id } }`})
	require.NotEmpty(t, res.Errors)
	require.Contains(t, res.Errors[0].Message, "title is required")
}

func TestLoad(t *testing.T) {
	_, ok := registry.Default.Lookup(ModuleID)
	require.True(t, ok)

	t.Setenv("SOROBONTO_BLOG_DSN", ":memory:")
	sb := schemabuilder.NewSchema()
	require.NoError(t, Load(sb))
	query, mutation := sb.Capabilities()
	require.Equal(t, []string{"posts", "post"}, query.FieldNames())
	require.Equal(t, []string{"createPost"}, mutation.FieldNames())

	schema, err := compose.Compose(
		[]compose.Capability{{Module: ModuleID, Object: query}},
		[]compose.Capability{{Module: ModuleID, Object: mutation}},
	)
	require.NoError(t, err)
	require.NoError(t, sb.Close())
	res := schema.Do(context.Background(), compose.Request{Query: `{ posts { id } }`})
	require.NotEmpty(t, res.Errors, "the store is closed with the contribution")
	require.Contains(t, res.Errors[0].Message, "closed")

	t.Setenv("SOROBONTO_BLOG_DSN", filepath.Join(t.TempDir(), "missing", "blog.db"))
	require.Error(t, Load(schemabuilder.NewSchema()))
}

func TestLoadFailureIsIsolated(t *testing.T) {
	t.Setenv("SOROBONTO_BLOG_DSN", filepath.Join(t.TempDir(), "missing", "blog.db"))

	res := registry.NewResolver([]registry.Source{registry.Default}).Resolve([]string{ModuleID})
	require.Equal(t, registry.Failed, res.Outcomes()[0].Status)
	require.Empty(t, res.Queries())
}
