package cascade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade"
)

func TestRegistryGetUnknownDataSourceIsConfigurationError(t *testing.T) {
	r := cascade.NewRegistry()

	_, err := r.Get("unknown")
	require.Error(t, err)
	assert.True(t, cascade.Is(err, cascade.KindConfigMissingDataSource))
}

func TestRegistryGetEmptyNameWithNoneRegisteredIsConfigurationError(t *testing.T) {
	r := cascade.NewRegistry()

	_, err := r.Get("")
	require.Error(t, err)
	assert.True(t, cascade.Is(err, cascade.KindConfigMissingDataSource))
}

func TestRegistryFirstRegisteredBecomesDefault(t *testing.T) {
	r := cascade.NewRegistry()
	primary := &cascade.DataSource{Name: "primary", Driver: &stubDriver{}}
	require.NoError(t, r.Register(primary))

	got, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "primary", got.Name)
}

func TestRegistryExplicitDefaultOverridesFirstRegistered(t *testing.T) {
	r := cascade.NewRegistry()
	require.NoError(t, r.Register(&cascade.DataSource{Name: "primary", Driver: &stubDriver{}}))
	require.NoError(t, r.Register(&cascade.DataSource{
		Name:    "secondary",
		Options: cascade.DataSourceOptions{Default: true},
		Driver:  &stubDriver{},
	}))

	got, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "secondary", got.Name)
}

func TestRegistryRegisterDuplicateNameFails(t *testing.T) {
	r := cascade.NewRegistry()
	require.NoError(t, r.Register(&cascade.DataSource{Name: "primary", Driver: &stubDriver{}}))

	err := r.Register(&cascade.DataSource{Name: "primary", Driver: &stubDriver{}})
	require.Error(t, err)
	assert.True(t, cascade.Is(err, cascade.KindConfigDuplicateName))
}

func TestRegistryClearRemovesEverything(t *testing.T) {
	r := cascade.NewRegistry()
	require.NoError(t, r.Register(&cascade.DataSource{Name: "primary", Driver: &stubDriver{}}))

	r.Clear()
	_, err := r.Get("primary")
	require.Error(t, err)
}
