// Package scripting loads modules whose schema is a Go script interpreted at
// startup.
//
// A script lives at <dir>/<id>/schema.go, is package main, and declares Query
// and/or Mutation as a map[string]any of field name to resolver function, or as
// a func() map[string]any returning one:
//
//	package main
//
//	var Query = map[string]any{
//		"version": func() string { return "1.0.0" },
//	}
package scripting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/Dawdaborje/sorobonto-backend/registry"
	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
)

// FileName is the schema file looked up in each module directory.
const FileName = "schema.go"

const (
	mainPackage    = "main"
	querySymbol    = "Query"
	mutationSymbol = "Mutation"
)

// ErrNotExist is returned by Load when the script file does not exist.
var ErrNotExist = errors.New("scripting: schema file does not exist")

// Source is a registry.Source backed by a directory of module scripts.
type Source struct {
	dir string
}

// NewSource returns a source reading scripts below dir. An empty dir knows no
// modules.
func NewSource(dir string) *Source {
	return &Source{dir: strings.TrimSpace(dir)}
}

// Path returns the script path of module id.
func (s *Source) Path(id string) string {
	return filepath.Join(s.dir, id, FileName)
}

// Lookup implements registry.Source. A module without a directory or a script
// file in it is absent.
func (s *Source) Lookup(id string) (registry.Loader, bool) {
	if s.dir == "" {
		return nil, false
	}
	if !filepath.IsLocal(id) || strings.ContainsAny(id, `/\`) {
		return func(*schemabuilder.Schema) error {
			return fmt.Errorf("%w: %q", registry.ErrInvalidModule, id)
		}, true
	}

	// A plain file where the module directory should be means no module.
	if info, err := os.Stat(filepath.Join(s.dir, id)); err != nil || !info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil, false
		}
		return func(*schemabuilder.Schema) error {
			return fmt.Errorf("scripting: stat %s: %w", filepath.Join(s.dir, id), err)
		}, true
	}

	path := s.Path(id)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false
	case err != nil:
		return func(*schemabuilder.Schema) error {
			return fmt.Errorf("scripting: stat %s: %w", path, err)
		}, true
	case info.IsDir():
		return func(*schemabuilder.Schema) error {
			return fmt.Errorf("scripting: %s is a directory", path)
		}, true
	}
	return func(sb *schemabuilder.Schema) error {
		return Load(path, sb)
	}, true
}

// Load interprets the script at path and registers its fields on sb, in name
// order. The script always runs, so a failing init or a bad import is an error
// even when it declares neither Query nor Mutation; such a script contributes
// nothing.
func Load(path string, sb *schemabuilder.Schema) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return fmt.Errorf("scripting: stat %s: %w", path, err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("scripting: %s: %w", path, err)
	}
	builtin := i.Symbols("")
	if _, err := i.EvalPath(path); err != nil {
		return fmt.Errorf("scripting: interpret %s: %w", path, err)
	}

	declared, err := declaredRoots(i, builtin)
	if err != nil {
		return fmt.Errorf("scripting: %s: %w", path, err)
	}

	for _, symbol := range declared {
		value, err := i.Eval(symbol)
		if err != nil {
			return fmt.Errorf("scripting: %s: eval %s: %w", path, symbol, err)
		}
		fields, err := fieldMap(symbol, value)
		if err != nil {
			return fmt.Errorf("scripting: %s: %w", path, err)
		}

		object := sb.Query()
		if symbol == mutationSymbol {
			object = sb.Mutation()
		}
		if err := register(object, fields); err != nil {
			return fmt.Errorf("scripting: %s: %s.%w", path, symbol, err)
		}
	}
	return nil
}

// declaredRoots returns the root symbols the interpreted script exports, Query
// first. Packages in builtin were loaded before the script ran; any other
// package the script defined must be main.
func declaredRoots(i *interp.Interpreter, builtin interp.Exports) ([]string, error) {
	exports := i.Symbols("")
	for pkg := range exports {
		if _, ok := builtin[pkg]; !ok && pkg != mainPackage {
			return nil, fmt.Errorf("package %s, want %s", pkg, mainPackage)
		}
	}

	var roots []string
	for _, symbol := range []string{querySymbol, mutationSymbol} {
		if _, ok := exports[mainPackage][symbol]; ok {
			roots = append(roots, symbol)
		}
	}
	return roots, nil
}

// fieldMap turns the value of a root symbol into field name to resolver.
func fieldMap(symbol string, value reflect.Value) (map[string]reflect.Value, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, fmt.Errorf("%s is nil", symbol)
	}

	if value.Kind() == reflect.Func {
		if value.Type().NumIn() != 0 || value.Type().NumOut() != 1 {
			return nil, fmt.Errorf("%s must be a func() map[string]any", symbol)
		}
		value = indirect(value.Call(nil)[0])
		if !value.IsValid() {
			return nil, fmt.Errorf("%s returned nil", symbol)
		}
	}

	if value.Kind() != reflect.Map || value.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%s must be a map[string]any, got %s", symbol, value.Type())
	}

	fields := make(map[string]reflect.Value, value.Len())
	iter := value.MapRange()
	for iter.Next() {
		name := iter.Key().String()
		fn := indirect(iter.Value())
		if !fn.IsValid() || fn.Kind() != reflect.Func {
			return nil, fmt.Errorf("%s[%q] is not a function", symbol, name)
		}
		fields[name] = fn
	}
	return fields, nil
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// register adds fields to object in name order. FieldFunc panics on a bad
// resolver shape; that is reported as an error naming the field.
func register(object *schemabuilder.Object, fields map[string]reflect.Value) (err error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var current string
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%s: %v", current, v)
		}
	}()
	for _, name := range names {
		current = name
		object.FieldFunc(name, fields[name].Interface())
	}
	return nil
}
