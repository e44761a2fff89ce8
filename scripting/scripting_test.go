package scripting_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dawdaborje/sorobonto-backend/compose"
	"github.com/Dawdaborje/sorobonto-backend/registry"
	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
	"github.com/Dawdaborje/sorobonto-backend/scripting"
)

const statusScript = `package main

import "strings"

var Query = map[string]any{
	"version": func() string { return "1.0.0" },
	"shout":   func() string { return strings.ToUpper("ok") },
}
`

const counterScript = `package main

var count = 0

func Query() map[string]any {
	return map[string]any{
		"count": func() int { return count },
	}
}

func Mutation() map[string]any {
	return map[string]any{
		"increment": func() int {
			count++
			return count
		},
	}
}
`

func writeScript(t *testing.T, dir, id, code string) string {
	t.Helper()
	moduleDir := filepath.Join(dir, id)
	require.NoError(t, os.MkdirAll(moduleDir, 0o755))
	path := filepath.Join(moduleDir, scripting.FileName)
	require.NoError(t, os.WriteFile(path, []byte(code), 0o644))
	return path
}

func TestLoadMapSymbol(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "status", statusScript)

	sb := schemabuilder.NewSchema()
	require.NoError(t, scripting.Load(path, sb))

	query, mutation := sb.Capabilities()
	require.Nil(t, mutation)
	require.Equal(t, []string{"shout", "version"}, query.FieldNames())

	schema, err := compose.Compose([]compose.Capability{{Module: "status", Object: query}}, nil)
	require.NoError(t, err)
	res := schema.Do(context.Background(), compose.Request{Query: `{ version shout }`})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]interface{}{"version": "1.0.0", "shout": "OK"}, res.Data)
}

func TestLoadFuncSymbols(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "counter", counterScript)

	sb := schemabuilder.NewSchema()
	require.NoError(t, scripting.Load(path, sb))

	query, mutation := sb.Capabilities()
	require.Equal(t, []string{"count"}, query.FieldNames())
	require.Equal(t, []string{"increment"}, mutation.FieldNames())
}

func TestLoadWithoutRoots(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "quiet", "package main\n\nvar unrelated = 1\n")

	sb := schemabuilder.NewSchema()
	require.NoError(t, scripting.Load(path, sb))
	query, mutation := sb.Capabilities()
	require.Nil(t, query)
	require.Nil(t, mutation)
}

func TestLoadWithoutRootsStillRuns(t *testing.T) {
	for name, code := range map[string]string{
		"init panics": "package main\n\nfunc init() { panic(\"boom\") }\n",
		"bad import":  "package main\n\nimport \"example.com/does/not/exist\"\n",
		"type error":  "package main\n\nvar x int = \"str\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeScript(t, dir, "quiet", code)
			require.Error(t, scripting.Load(path, schemabuilder.NewSchema()))
		})
	}
}

func TestLoadErrors(t *testing.T) {
	for name, code := range map[string]string{
		"syntax":        "package main\n\nvar Query = map[string]any{\n",
		"wrong package": "package blog\n\nvar Query = map[string]any{}\n",
		"not a map":     "package main\n\nvar Query = 42\n",
		"not a func":    "package main\n\nvar Query = map[string]any{\"x\": 1}\n",
		"bad shape":     "package main\n\nvar Query = map[string]any{\"x\": func(a, b int) int { return a }}\n",
		"undefined":     "package main\n\nvar Query = map[string]any{\"x\": missing}\n",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeScript(t, dir, "broken", code)
			require.Error(t, scripting.Load(path, schemabuilder.NewSchema()))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	err := scripting.Load(filepath.Join(t.TempDir(), "nope", scripting.FileName), schemabuilder.NewSchema())
	require.True(t, errors.Is(err, scripting.ErrNotExist), "got %v", err)
}

func TestSourceLookup(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "status", statusScript)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty_dir"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dir_schema", scripting.FileName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain_file"), []byte("notes"), 0o644))

	src := scripting.NewSource(dir)
	require.Equal(t, filepath.Join(dir, "status", scripting.FileName), src.Path("status"))

	_, ok := src.Lookup("status")
	require.True(t, ok)
	_, ok = src.Lookup("missing")
	require.False(t, ok)
	_, ok = src.Lookup("empty_dir")
	require.False(t, ok)
	_, ok = src.Lookup("plain_file")
	require.False(t, ok)

	loader, ok := src.Lookup("dir_schema")
	require.True(t, ok)
	require.Error(t, loader(schemabuilder.NewSchema()))

	loader, ok = src.Lookup("../escape")
	require.True(t, ok)
	require.ErrorIs(t, loader(schemabuilder.NewSchema()), registry.ErrInvalidModule)

	_, ok = scripting.NewSource("").Lookup("status")
	require.False(t, ok)
}

func TestSourceWithResolver(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "status", statusScript)
	writeScript(t, dir, "broken_app", "package main\n\nvar Query = map[string]any{\"x\": missing}\n")
	writeScript(t, dir, "panicking_init", "package main\n\nfunc init() { panic(\"boom\") }\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain_file"), []byte("notes"), 0o644))

	res := registry.NewResolver([]registry.Source{scripting.NewSource(dir)}).
		Resolve([]string{"status", "missing_app", "broken_app", "panicking_init", "plain_file"})

	var got []registry.Status
	for _, o := range res.Outcomes() {
		got = append(got, o.Status)
	}
	require.Equal(t, []registry.Status{
		registry.Loaded, registry.Absent, registry.Failed, registry.Failed, registry.Absent,
	}, got)
	require.Len(t, res.Queries(), 1)
	require.Equal(t, "status", res.Queries()[0].Module)
}
