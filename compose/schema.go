package compose

import (
	"context"

	"github.com/graphql-go/graphql"
)

// Root is one composite root type: its fields in composition order and the
// module that contributed each of them.
type Root struct {
	name   string
	fields []string
	owners map[string]string
	object *graphql.Object
}

// Name returns the GraphQL type name of the root.
func (r *Root) Name() string {
	return r.name
}

// FieldNames returns the root's field names in composition order.
func (r *Root) FieldNames() []string {
	names := make([]string, len(r.fields))
	copy(names, r.fields)
	return names
}

// Has reports whether the root defines field.
func (r *Root) Has(field string) bool {
	_, ok := r.owners[field]
	return ok
}

// Owner returns the module that contributed field.
func (r *Root) Owner(field string) (string, bool) {
	module, ok := r.owners[field]
	return module, ok
}

// Object returns the graphql-go type of the root, or nil when the root has no
// fields. GraphQL does not allow object types without fields.
func (r *Root) Object() *graphql.Object {
	return r.object
}

// Schema is the composed API schema. It is built once by Compose and is safe for
// concurrent use.
type Schema struct {
	query      *Root
	mutation   *Root
	executable graphql.Schema
}

// Query returns the composite query root.
func (s *Schema) Query() *Root {
	return s.query
}

// Mutation returns the composite mutation root. It is never nil, even when no
// module contributes a mutation.
func (s *Schema) Mutation() *Root {
	return s.mutation
}

// Executable returns the graphql-go schema for execution engines.
func (s *Schema) Executable() *graphql.Schema {
	return &s.executable
}

// Request is a single GraphQL operation to execute against the schema.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Do executes req.
func (s *Schema) Do(ctx context.Context, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.executable,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}
