package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
)

func noop(*schemabuilder.Schema) error { return nil }

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("blog", noop))
	require.NoError(t, r.Register("accounts", noop))

	require.Error(t, r.Register("blog", noop))
	require.Error(t, r.Register("", noop))
	require.Error(t, r.Register("status", nil))

	require.Equal(t, []string{"accounts", "blog"}, r.IDs())

	_, ok := r.Lookup("blog")
	require.True(t, ok)
	_, ok = r.Lookup("missing")
	require.False(t, ok)
}

func TestRegistryMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("blog", noop)
	require.Panics(t, func() { r.MustRegister("blog", noop) })
}

func TestDefaultRegistry(t *testing.T) {
	saved := Default
	Default = NewRegistry()
	t.Cleanup(func() { Default = saved })

	require.NoError(t, Register("blog", noop))
	require.Panics(t, func() { MustRegister("blog", noop) })
	require.Equal(t, []string{"blog"}, Default.IDs())
}
