package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a post does not exist.
var ErrNotFound = errors.New("blog: post not found")

const schema = `CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
)`

// Store persists posts in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite post store and creates its table.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("blog: storage dsn is required")
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("blog: open sqlite db: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("blog: ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("blog: create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Create inserts a post with a new id.
func (s *Store) Create(ctx context.Context, title, body string) (*Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("blog: title is required")
	}

	p := &Post{
		ID:        newID(),
		Title:     title,
		Body:      body,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO posts (id, title, body, created_at) VALUES (?, ?, ?, ?)`,
		string(p.ID), p.Title, p.Body, toMillis(p.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("blog: insert post: %w", err)
	}
	return p, nil
}

// Get returns the post with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Post, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, title, body, created_at FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blog: get post: %w", err)
	}
	return p, nil
}

// List returns every post, newest first.
func (s *Store) List(ctx context.Context) ([]*Post, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, title, body, created_at FROM posts ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("blog: list posts: %w", err)
	}
	defer rows.Close()

	posts := []*Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("blog: scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("blog: list posts: %w", err)
	}
	return posts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*Post, error) {
	var (
		p       Post
		id      string
		created int64
	)
	if err := row.Scan(&id, &p.Title, &p.Body, &created); err != nil {
		return nil, err
	}
	p.ID = ID(id)
	p.CreatedAt = fromMillis(created)
	return &p, nil
}

func newID() ID {
	return ID(uuid.NewString())
}
