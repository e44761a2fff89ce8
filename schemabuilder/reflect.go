package schemabuilder

import (
	"context"
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

// graphQLFieldInfo contains basic struct field information related to GraphQL.
type graphQLFieldInfo struct {
	// Skipped indicates that this field should not be included in GraphQL.
	Skipped bool

	// Name is the GraphQL field name that should be exposed for this field.
	Name string

	// DeprecationReason if set marks the field deprecated.
	// Parsed from graphql tag options, e.g., `graphql:"age,deprecated=Use birthdate"`.
	DeprecationReason string

	// Description is parsed from tag options, e.g., `graphql:"name,description=..."`.
	Description string
}

// parseGraphQLFieldInfo parses a struct field and returns a struct with the parsed information about the field (tag info, name, etc).
// The graphql tag wins over the json tag; "-" skips the field.
func parseGraphQLFieldInfo(field reflect.StructField) *graphQLFieldInfo {
	if field.PkgPath != "" { //If the field of struct is not exported, then it is not exposed
		return &graphQLFieldInfo{Skipped: true}
	}

	tag := field.Tag.Get("graphql")
	if tag == "" {
		tag = field.Tag.Get("json")
	}
	tags := strings.Split(tag, ",")
	name := strings.TrimSpace(tags[0])
	if name == "-" {
		return &graphQLFieldInfo{Skipped: true}
	}
	if name == "" {
		name = makeGraphql(field.Name)
	}

	info := &graphQLFieldInfo{Name: name}
	for _, opt := range tags[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case strings.HasPrefix(opt, "deprecated="):
			info.DeprecationReason = strings.TrimPrefix(opt, "deprecated=")
		case strings.HasPrefix(opt, "description="):
			info.Description = strings.TrimPrefix(opt, "description=")
		}
	}
	return info
}

// makeGraphql converts a field name "MyField" into a graphQL field name "myField".
// An all-caps name such as "ID" is lowered as a whole.
func makeGraphql(s string) string {
	if s == strings.ToUpper(s) {
		return strings.ToLower(s)
	}
	return strcase.ToLowerCamel(s)
}

// typeName returns the GraphQL name of a named Go type. Types without a name
// (anonymous or interpreted structs) fall back to hint.
func typeName(typ reflect.Type, hint string) string {
	if typ.Name() != "" {
		return typ.Name()
	}
	return strcase.ToCamel(hint)
}

// Common Types that we will need to perform type assertions against.
var errType = reflect.TypeOf((*error)(nil)).Elem()
var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
