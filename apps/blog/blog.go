// Package blog is a compiled-in module serving posts from SQLite.
//
// Importing the package registers it with registry.Default under ModuleID.
package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Dawdaborje/sorobonto-backend/registry"
	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
)

// ModuleID is the identifier the module registers under.
const ModuleID = "blog"

type ID = schemabuilder.ID

// Post is a blog post.
type Post struct {
	ID        ID
	Title     string
	Body      string
	CreatedAt time.Time
}

// Config is read from the environment when the module loads.
type Config struct {
	DSN string `env:"SOROBONTO_BLOG_DSN" envDefault:":memory:"`
}

func init() {
	registry.MustRegister(ModuleID, Load)
}

// Load opens the store named by the environment and registers the module's
// fields on sb. The store is closed with sb.
func Load(sb *schemabuilder.Schema) error {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("blog: parse env: %w", err)
	}
	store, err := Open(cfg.DSN)
	if err != nil {
		return err
	}
	sb.OnClose(store.Close)
	Register(sb, store)
	return nil
}

// Register exposes posts, post and createPost backed by store.
func Register(sb *schemabuilder.Schema, store *Store) {
	query := sb.Query()
	query.FieldFunc("posts", func(ctx context.Context) ([]*Post, error) {
		return store.List(ctx)
	}, "All posts, newest first.")
	query.FieldFunc("post", func(ctx context.Context, args struct{ ID ID }) (*Post, error) {
		p, err := store.Get(ctx, string(args.ID))
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return p, err
	}, "The post with the given id, or null.")

	sb.Mutation().FieldFunc("createPost", func(ctx context.Context, args struct {
		Title string
		Body  *string
	}) (*Post, error) {
		var body string
		if args.Body != nil {
			body = *args.Body
		}
		return store.Create(ctx, args.Title, body)
	}, "Creates a post.")
}
