package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	require.NoError(t, catalog.Validate())
	assert.Len(t, catalog.Metrics, 5)
	assert.Equal(t, "likes", catalog.Metrics[0].Name)
	assert.Equal(t, 9326, catalog.Metrics[0].ServiceID)
	assert.Equal(t, 9011, catalog.Followers.ServiceID)
	assert.True(t, catalog.FollowersEnabled())
	assert.Len(t, catalog.Enabled(), 5)
}

func TestEnabled_SkipsZeroQuantity(t *testing.T) {
	catalog := DefaultCatalog()
	catalog.Metrics[1].Quantity = 0

	enabled := catalog.Enabled()

	assert.Len(t, enabled, 4)
	for _, metric := range enabled {
		assert.NotEqual(t, "retweets", metric.Name)
	}
}

func TestFollowersEnabled_ZeroQuantityDisables(t *testing.T) {
	catalog := DefaultCatalog()
	catalog.Followers.Quantity = 0

	assert.False(t, catalog.FollowersEnabled())
}

func TestLoadCatalog_ReplacesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
metrics:
  - name: likes
    service: 111
    quantity: 10
  - name: impressions
    service: 222
    quantity: 500
followers:
  service: 333
  quantity: 50
`), 0o644))

	catalog, err := LoadCatalog(path)

	require.NoError(t, err)
	assert.Len(t, catalog.Metrics, 2)
	assert.Equal(t, 111, catalog.Metrics[0].ServiceID)
	assert.Equal(t, 50, catalog.Followers.Quantity)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "metric without name",
			yaml: "metrics:\n  - service: 1\n    quantity: 10\n",
		},
		{
			name: "duplicate metric",
			yaml: "metrics:\n  - name: likes\n    service: 1\n    quantity: 10\n  - name: likes\n    service: 2\n    quantity: 20\n",
		},
		{
			name: "enabled metric without service",
			yaml: "metrics:\n  - name: likes\n    quantity: 10\n",
		},
		{
			name: "enabled followers without service",
			yaml: "followers:\n  quantity: 10\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			catalog, err := LoadCatalog(path)

			assert.Error(t, err)
			assert.Nil(t, catalog)
		})
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
	assert.Nil(t, catalog)
}
