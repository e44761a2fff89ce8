package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dawdaborje/sorobonto-backend/compose"
	"github.com/Dawdaborje/sorobonto-backend/registry"
)

func TestStatusModule(t *testing.T) {
	saved := now
	now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = saved })

	res := registry.NewResolver([]registry.Source{registry.Default}).Resolve([]string{ModuleID})
	require.Equal(t, registry.Loaded, res.Outcomes()[0].Status)
	require.Len(t, res.Queries(), 1)
	require.Empty(t, res.Mutations())

	schema, err := compose.Compose(res.Queries(), res.Mutations())
	require.NoError(t, err)
	require.Equal(t, []string{"hello", "version", "serverTime"}, schema.Query().FieldNames())
	require.Empty(t, schema.Mutation().FieldNames())

	out := schema.Do(context.Background(), compose.Request{Query: `{ version serverTime }`})
	require.Empty(t, out.Errors)
	require.Equal(t, map[string]interface{}{
		"version":    "dev",
		"serverTime": "2024-05-01T12:30:00Z",
	}, out.Data)
}
