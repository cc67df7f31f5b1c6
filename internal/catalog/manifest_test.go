package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogs.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
[[sources]]
name = "Dyna Metal Pen Catalog.json"
path = "data/catalogs/Dyna Metal Pen Catalog.json"
tag = "dyna"
enhanced = true

[[sources]]
path = "https://catalogs.example.com/general.json"
`)

	m, err := LoadManifest(path)

	require.NoError(t, err)
	require.Len(t, m.Sources, 2)
	assert.Equal(t, "dyna", m.Sources[0].Tag)
	assert.True(t, m.Sources[0].Enhanced)
	// Name defaults to the path, tag is derived from it.
	assert.Equal(t, "https://catalogs.example.com/general.json", m.Sources[1].Name)
	assert.NotEmpty(t, m.Sources[1].Tag)
	assert.False(t, m.Sources[1].Enhanced)
}

func TestLoadManifest_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})

	t.Run("no sources", func(t *testing.T) {
		_, err := LoadManifest(writeManifest(t, `# empty manifest`))
		assert.Error(t, err)
	})

	t.Run("source without path", func(t *testing.T) {
		_, err := LoadManifest(writeManifest(t, "[[sources]]\nname = \"tagless\"\n"))
		assert.Error(t, err)
	})
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest("data/catalogs")

	require.NotEmpty(t, m.Sources)
	for _, src := range m.Sources {
		assert.NotEmpty(t, src.Tag)
		assert.Contains(t, src.Path, "data/catalogs/")
	}
}

func TestTagFromName(t *testing.T) {
	assert.Equal(t, "dyna", tagFromName("Dyna Metal Pen Catalog.json"))
	assert.Equal(t, "generalproducts", tagFromName("general-products"))
	assert.Equal(t, "src", tagFromName("   "))
}
