package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/confinject"
)

func TestRegisterAll(t *testing.T) {
	t.Parallel()

	catalog := confinject.NewCatalog()
	RegisterAll(catalog)
	assert.Equal(t, []string{"httpsvr", "sample"}, catalog.Namespaces())

	for _, ref := range []string{"sample:App", "sample:IC", "httpsvr:Server", "httpsvr:Greeter"} {
		_, err := catalog.LoadString(ref)
		require.NoError(t, err, ref)
	}
}

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	assert.Subset(t, confinject.DefaultCatalog().Namespaces(), []string{"httpsvr", "sample"})
	_, err := confinject.DefaultCatalog().LoadString("sample:ConfiguredApp")
	require.NoError(t, err)
}
