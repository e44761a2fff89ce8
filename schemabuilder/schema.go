package schemabuilder

import "errors"

// Schema collects the query and mutation fields contributed by one module.
//
// A module asks for a capability by calling Query or Mutation; a capability that
// was never asked for is absent, which is different from one with no fields:
//   sb := schemabuilder.NewSchema()
//   sb.Query().FieldFunc("posts", func(ctx context.Context) ([]*Post, error) {
//       return store.List(ctx)
//   })
type Schema struct {
	query    *Object
	mutation *Object
	closers  []func() error
}

// NewSchema creates an empty contribution.
func NewSchema() *Schema {
	return &Schema{}
}

// Query returns the query capability, creating it on first use.
func (s *Schema) Query() *Object {
	if s.query == nil {
		s.query = &Object{Name: "Query"}
	}
	return s.query
}

// Mutation returns the mutation capability, creating it on first use.
func (s *Schema) Mutation() *Object {
	if s.mutation == nil {
		s.mutation = &Object{Name: "Mutation"}
	}
	return s.mutation
}

// Capabilities returns the capabilities the module asked for. Either may be nil.
func (s *Schema) Capabilities() (query, mutation *Object) {
	return s.query, s.mutation
}

// OnClose registers fn to release a resource the module opened while loading.
func (s *Schema) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close runs the functions registered with OnClose in reverse order, at most
// once each, and joins their errors.
func (s *Schema) Close() error {
	closers := s.closers
	s.closers = nil

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
