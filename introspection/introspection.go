// Package introspection runs the standard introspection query against a
// composed schema.
package introspection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/graphql-go/graphql/gqlerrors"

	"github.com/Dawdaborje/sorobonto-backend/compose"
)

type TypeKind string

const (
	SCALAR       TypeKind = "SCALAR"
	OBJECT       TypeKind = "OBJECT"
	INTERFACE    TypeKind = "INTERFACE"
	UNION        TypeKind = "UNION"
	ENUM         TypeKind = "ENUM"
	INPUT_OBJECT TypeKind = "INPUT_OBJECT"
	LIST         TypeKind = "LIST"
	NON_NULL     TypeKind = "NON_NULL"
)

// TypeRef is a possibly wrapped reference to a named type.
type TypeRef struct {
	Kind   TypeKind `json:"kind"`
	Name   *string  `json:"name"`
	OfType *TypeRef `json:"ofType"`
}

// String renders the reference in SDL notation, e.g. [Post!]!.
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case NON_NULL:
		return t.OfType.String() + "!"
	case LIST:
		return "[" + t.OfType.String() + "]"
	}
	if t.Name == nil {
		return ""
	}
	return *t.Name
}

type InputValue struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Type         TypeRef `json:"type"`
	DefaultValue *string `json:"defaultValue"`
}

type Field struct {
	Name              string       `json:"name"`
	Description       *string      `json:"description"`
	Args              []InputValue `json:"args"`
	Type              TypeRef      `json:"type"`
	IsDeprecated      bool         `json:"isDeprecated"`
	DeprecationReason *string      `json:"deprecationReason"`
}

type Type struct {
	Kind        TypeKind     `json:"kind"`
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Fields      []Field      `json:"fields"`
	InputFields []InputValue `json:"inputFields"`
}

type typeName struct {
	Name string `json:"name"`
}

// Document is the decoded result of IntrospectionQuery.
type Document struct {
	Schema struct {
		QueryType    *typeName `json:"queryType"`
		MutationType *typeName `json:"mutationType"`
		Types        []Type    `json:"types"`
	} `json:"__schema"`
}

// Type returns the named type, or nil.
func (d *Document) Type(name string) *Type {
	for i := range d.Schema.Types {
		if d.Schema.Types[i].Name == name {
			return &d.Schema.Types[i]
		}
	}
	return nil
}

// TypeNames returns the names of user defined types, sorted. Meta types
// starting with "__" are left out.
func (d *Document) TypeNames() []string {
	var names []string
	for _, t := range d.Schema.Types {
		if strings.HasPrefix(t.Name, "__") {
			continue
		}
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// RootFields returns the field names of the query and mutation roots. mutation
// is nil when the schema has no mutation type.
func (d *Document) RootFields() (query, mutation []string) {
	names := func(root *typeName) []string {
		if root == nil {
			return nil
		}
		t := d.Type(root.Name)
		if t == nil {
			return nil
		}
		out := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			out = append(out, f.Name)
		}
		return out
	}
	return names(d.Schema.QueryType), names(d.Schema.MutationType)
}

// Parse decodes the output of ComputeSchemaJSON.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("introspection: decode: %w", err)
	}
	return &doc, nil
}

// ComputeSchemaJSON returns the result of executing a GraphQL introspection
// query.
func ComputeSchemaJSON(schema *compose.Schema) ([]byte, error) {
	result := schema.Do(context.Background(), compose.Request{
		Query:         IntrospectionQuery,
		OperationName: "IntrospectionQuery",
	})
	if result.HasErrors() {
		return nil, fmt.Errorf("introspection: %w", &queryError{errs: result.Errors})
	}

	return json.MarshalIndent(result.Data, "", "  ")
}

type queryError struct {
	errs []gqlerrors.FormattedError
}

func (e *queryError) Error() string {
	msgs := make([]string, len(e.errs))
	for i, err := range e.errs {
		msgs[i] = err.Message
	}
	return strings.Join(msgs, "; ")
}
