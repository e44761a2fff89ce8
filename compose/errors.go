package compose

import (
	"fmt"
	"strings"
)

// Conflict is a name defined by more than one module. Root is "Query",
// "Mutation", or "type" for a GraphQL type name.
type Conflict struct {
	Root    string
	Field   string
	Modules []string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s.%s defined by modules %s", c.Root, c.Field, strings.Join(c.Modules, ", "))
}

// CompositionError is returned when contributions cannot be merged into one
// schema. It lists every conflict found, in composition order.
type CompositionError struct {
	Conflicts []Conflict
}

func (e *CompositionError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = c.String()
	}
	return "compose: conflicting definitions: " + strings.Join(parts, "; ")
}
