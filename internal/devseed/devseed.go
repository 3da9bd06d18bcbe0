// Package devseed loads seed files used to pre-populate the in-memory
// contents mock and the sandbox server during development.
package devseed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ContentsSeedEntry describes one content item to create at startup.
// Directories are created implicitly for any parent path.
type ContentsSeedEntry struct {
	Path    string `json:"path" yaml:"path"`
	Type    string `json:"type" yaml:"type"`
	Format  string `json:"format,omitempty" yaml:"format,omitempty"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// LoadContentsSeed reads seed entries from a JSON or YAML file, selected by
// extension (.yaml/.yml for YAML, anything else is parsed as JSON).
func LoadContentsSeed(path string) ([]ContentsSeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read seed file: %w", err)
	}

	var entries []ContentsSeedEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("devseed: parse YAML seed: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("devseed: parse JSON seed: %w", err)
		}
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Path) == "" {
			return nil, fmt.Errorf("devseed: seed entry %d missing path", i)
		}
		if e.Type == "" {
			entries[i].Type = "file"
		}
	}
	return entries, nil
}
