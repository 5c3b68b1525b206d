package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
subsets:
  - name: scene_crop
    region: {x: 10, y: 10, width: 50, height: 50}
    sub_sampling_x: 2
    node_names: [radiance_1, latitude, longitude]
    treat_virtual_bands_as_real: true
  - name: full_scene
    ignore_metadata: true
concurrency: 4
memcache_address: "127.0.0.1:11211"
`

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)

	require.Len(t, config.Subsets, 2)
	crop := config.Subsets[0]
	assert.Equal(t, "scene_crop", crop.Name)
	require.NotNil(t, crop.Region)
	assert.Equal(t, RegionConfig{X: 10, Y: 10, Width: 50, Height: 50}, *crop.Region)
	assert.Equal(t, 2, crop.SubSamplingX)
	assert.Equal(t, 1, crop.SubSamplingY)
	assert.Equal(t, []string{"radiance_1", "latitude", "longitude"}, crop.NodeNames)
	assert.True(t, crop.TreatVirtualBandsAsReal)

	full := config.Subsets[1]
	assert.Nil(t, full.Region)
	assert.Nil(t, full.NodeNames)
	assert.True(t, full.IgnoreMetadata)

	assert.Equal(t, 4, config.Concurrency)
	assert.Equal(t, DefaultLineCacheWindow, config.LineCacheWindow)
	assert.Equal(t, "127.0.0.1:11211", config.MemcacheAddress)
}

func TestParseConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"negative sub-sampling": "subsets:\n  - name: a\n    sub_sampling_x: -2\n",
		"degenerate region":     "subsets:\n  - name: a\n    region: {x: 0, y: 0, width: 0, height: 5}\n",
		"bad concurrency":       "concurrency: -1\n",
		"not yaml":              "subsets: [",
	}
	for name, doc := range cases {
		_, err := ParseConfig([]byte(doc))
		require.Error(t, err, name)
		assert.True(t, IsConfigurationError(err), name)
	}
}

func TestLoadAllConfigFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sentinel1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(testConfig), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sentinel1", ConfigFileName), []byte("subsets:\n  - name: s1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sentinel1", "other.yaml"), []byte("garbage: ["), 0644))

	configMap, err := LoadAllConfigFiles(root)
	require.NoError(t, err)
	require.Len(t, configMap, 2)

	assert.Equal(t, "", configMap["."].NameSpace)
	assert.Equal(t, "sentinel1", configMap["sentinel1"].NameSpace)
	assert.Equal(t, "s1", configMap["sentinel1"].Subsets[0].Name)
}

func TestLoadAllConfigFilesEmpty(t *testing.T) {
	_, err := LoadAllConfigFiles(t.TempDir())
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}
