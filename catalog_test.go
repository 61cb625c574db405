package confinject

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCatalogLoad tests resolution of declared types.
func TestCatalogLoad(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog()

	handle, err := catalog.LoadString("app:C")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(testC{}), handle.Type())
	assert.Equal(t, "app:C", handle.Name().String())
	assert.False(t, handle.IsInterface())

	handle, err = catalog.LoadString("app:IC")
	require.NoError(t, err)
	assert.Equal(t, TypeOf[testIC](), handle.Type())
	assert.True(t, handle.IsInterface())

	// The method part does not take part in loading.
	handle, err = catalog.LoadString("app:App.run")
	require.NoError(t, err)
	assert.Equal(t, "app:App", handle.String())
}

// TestCatalogLoadErrors tests unresolvable references.
func TestCatalogLoadErrors(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog()

	_, err := catalog.LoadString("missing:C")
	assert.ErrorIs(t, err, NamespaceNotFoundError)

	_, err = catalog.LoadString("app:Missing")
	assert.ErrorIs(t, err, TypeNotFoundError)

	_, err = catalog.LoadString("app")
	assert.ErrorIs(t, err, MalformedReferenceError)
}

// TestCatalogLazyNamespace tests the loader runs once, on the first lookup.
func TestCatalogLazyNamespace(t *testing.T) {
	t.Parallel()

	calls := 0
	catalog := NewCatalog().Namespace("lazy", func(ns *Namespace) {
		calls++
		ns.Add("C", TypeOf[testC]())
	})
	assert.Equal(t, 0, calls)

	for i := 0; i < 3; i++ {
		_, err := catalog.LoadString("lazy:C")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

// TestCatalogNamespaces tests listing of declared namespaces and types.
func TestCatalogNamespaces(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog().
		Namespace("zeta", func(ns *Namespace) {}).
		Namespace("alpha", func(ns *Namespace) {
			ns.Add("B", TypeOf[testB]()).Add("A", TypeOf[testCycleA]())
		})
	assert.Equal(t, []string{"alpha", "zeta"}, catalog.Namespaces())

	ns, err := catalog.Lookup("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", ns.Name())
	assert.Equal(t, []string{"B", "A"}, ns.Types())
}

// TestNamespaceAddRejectsScalars tests only structs and interfaces are declared.
func TestNamespaceAddRejectsScalars(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog().Namespace("bad", func(ns *Namespace) {
		ns.Add("Int", TypeOf[int]())
	})
	assert.Panics(t, func() { _, _ = catalog.Lookup("bad") })
}

// TestNamespaceAddDereferencesPointers tests pointer types are declared by their struct.
func TestNamespaceAddDereferencesPointers(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog().Namespace("ptr", func(ns *Namespace) {
		ns.Add("C", TypeOf[*testC]())
	})
	handle, err := catalog.LoadString("ptr:C")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(testC{}), handle.Type())
}

// TestRegisterNamespace tests declarations in the process-wide catalog.
func TestRegisterNamespace(t *testing.T) {
	t.Parallel()

	RegisterNamespace("registered", func(ns *Namespace) {
		ns.Add("C", TypeOf[testC]())
	})
	assert.Contains(t, DefaultCatalog().Namespaces(), "registered")

	handle, err := DefaultCatalog().LoadString("registered:C")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(testC{}), handle.Type())
}
