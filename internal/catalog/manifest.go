package catalog

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Source describes one supplier catalog file. Tag is the short identity prefix
// used when synthesizing SKUs for records that ship without one; it is what
// keeps products distinguishable by origin after a merge.
type Source struct {
	Name     string `toml:"name"`
	Path     string `toml:"path"`
	Tag      string `toml:"tag"`
	Enhanced bool   `toml:"enhanced"`
}

// Manifest is the fixed, enumerable set of supplier catalogs a merge run
// processes, declared in catalogs.toml.
type Manifest struct {
	Sources []Source `toml:"sources"`
}

// LoadManifest reads and validates a TOML source manifest. Missing tags are
// derived from the source name so hand-written manifests stay short.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return Manifest{}, fmt.Errorf("catalog: decode manifest %s: %w", path, err)
	}
	if len(m.Sources) == 0 {
		return Manifest{}, fmt.Errorf("catalog: manifest %s declares no sources", path)
	}
	for i := range m.Sources {
		s := &m.Sources[i]
		if s.Path == "" {
			return Manifest{}, fmt.Errorf("catalog: manifest source %q has no path", s.Name)
		}
		if s.Name == "" {
			s.Name = s.Path
		}
		if s.Tag == "" {
			s.Tag = tagFromName(s.Name)
		}
	}
	return m, nil
}

// DefaultManifest covers the known supplier files shipped under dataDir, for
// runs without a catalogs.toml.
func DefaultManifest(dataDir string) Manifest {
	join := func(name string) string {
		return strings.TrimRight(dataDir, "/") + "/" + name
	}
	return Manifest{Sources: []Source{
		{Name: "Dyna Metal Pen Catalog.json", Path: join("Dyna Metal Pen Catalog.json"), Tag: "dyna", Enhanced: true},
		{Name: "Steelware Kitchen Catalog.json", Path: join("Steelware Kitchen Catalog.json"), Tag: "steel", Enhanced: true},
		{Name: "Household Plastics Catalog.json", Path: join("Household Plastics Catalog.json"), Tag: "plast", Enhanced: true},
		{Name: "general-products.json", Path: join("general-products.json"), Tag: "gen"},
	}}
}

// tagFromName lowercases the first word of the name, keeping letters and
// digits only.
func tagFromName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return "src"
	}
	var b strings.Builder
	for _, r := range fields[0] {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "src"
	}
	return b.String()
}
