// Package catalog loads the variety reference data used to seed the lookup
// table on startup.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

type seedFile struct {
	Varieties []domain.Variety `yaml:"varieties"`
}

// LoadSeed reads the variety seed from a YAML file. An empty path falls back
// to the built-in defaults so a bare deployment still classifies.
func LoadSeed(path string) ([]domain.Variety, error) {
	if path == "" {
		return DefaultSeed(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variety seed %s: %w", path, err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse variety seed %s: %w", path, err)
	}
	if len(file.Varieties) == 0 {
		return nil, fmt.Errorf("variety seed %s lists no varieties", path)
	}

	seen := make(map[string]struct{}, len(file.Varieties))
	for _, v := range file.Varieties {
		if v.CommonName == "" {
			return nil, fmt.Errorf("variety seed %s has an entry without a common name", path)
		}
		if _, dup := seen[v.CommonName]; dup {
			return nil, fmt.Errorf("variety seed %s lists %q twice", path, v.CommonName)
		}
		seen[v.CommonName] = struct{}{}
	}
	return file.Varieties, nil
}

// DefaultSeed covers the three varieties the recognition model ships with.
func DefaultSeed() []domain.Variety {
	return []domain.Variety{
		{
			CommonName:     "amarilla",
			ScientificName: "Solanum goniocalyx",
			Description:    "Floury yellow-fleshed variety from the central highlands",
			Active:         true,
		},
		{
			CommonName:     "huayro",
			ScientificName: "Solanum x chaucha",
			Description:    "Red-skinned variety, widely used for huatia",
			Active:         true,
		},
		{
			CommonName:     "peruanita",
			ScientificName: "Solanum goniocalyx",
			Description:    "Bicolor thin-skinned table variety",
			Active:         true,
		},
	}
}
