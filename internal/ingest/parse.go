package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// entry is the on-disk recipe schema. A file may hold a single entry or a
// list of entries.
type entry struct {
	Title       string   `json:"title" yaml:"title"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
	Directions  []string `json:"directions" yaml:"directions"`
}

// parseFile reads one recipe file. The extension picks the codec; both
// codecs accept a single entry or a list.
func parseFile(path string) ([]entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseEntries(data, json.Unmarshal)
	case ".yml", ".yaml":
		return parseEntries(data, yaml.Unmarshal)
	default:
		return nil, fmt.Errorf("unsupported recipe format %q", filepath.Ext(path))
	}
}

func parseEntries(data []byte, unmarshal func([]byte, any) error) ([]entry, error) {
	var list []entry
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}
	var single entry
	if err := unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []entry{single}, nil
}
