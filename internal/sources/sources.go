// Package sources loads the scraper source tables: the per-state region
// portals and the city/county bid boards. The tables are versioned YAML
// configuration, not code; embedded defaults ship with the binary and an
// operator can point at an edited copy instead.
package sources

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var defaultRegions []byte

//go:embed local_boards.yaml
var defaultLocalBoards []byte

// Region is one state/regional procurement portal entry.
type Region struct {
	Key     string            `yaml:"key"`
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// LocalBoard is one city/county bid board entry. Local government sites
// reorganize procurement pages frequently, so each entry carries ordered
// fallback URLs tried after the primary.
type LocalBoard struct {
	Key       string            `yaml:"key"`
	Name      string            `yaml:"name"`
	URL       string            `yaml:"url"`
	Fallbacks []string          `yaml:"fallbacks,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
}

type regionsFile struct {
	Regions []Region `yaml:"regions"`
}

type localBoardsFile struct {
	Boards []LocalBoard `yaml:"boards"`
}

// LoadRegions returns the region table from path, or the embedded default
// table when path is empty.
func LoadRegions(path string) ([]Region, error) {
	data := defaultRegions
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read regions file: %w", err)
		}
		data = b
	}

	var f regionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}
	if err := validateRegions(f.Regions); err != nil {
		return nil, err
	}
	return f.Regions, nil
}

// LoadLocalBoards returns the local bid board table from path, or the
// embedded default table when path is empty.
func LoadLocalBoards(path string) ([]LocalBoard, error) {
	data := defaultLocalBoards
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read local boards file: %w", err)
		}
		data = b
	}

	var f localBoardsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse local boards: %w", err)
	}
	if err := validateBoards(f.Boards); err != nil {
		return nil, err
	}
	return f.Boards, nil
}

func validateRegions(regions []Region) error {
	seen := make(map[string]struct{}, len(regions))
	for i, r := range regions {
		if r.Key == "" || r.Name == "" || r.URL == "" {
			return fmt.Errorf("region %d: key, name and url are required", i)
		}
		if _, dup := seen[r.Key]; dup {
			return fmt.Errorf("region %d: duplicate key %q", i, r.Key)
		}
		seen[r.Key] = struct{}{}
	}
	return nil
}

func validateBoards(boards []LocalBoard) error {
	seen := make(map[string]struct{}, len(boards))
	for i, b := range boards {
		if b.Key == "" || b.Name == "" || b.URL == "" {
			return fmt.Errorf("local board %d: key, name and url are required", i)
		}
		if _, dup := seen[b.Key]; dup {
			return fmt.Errorf("local board %d: duplicate key %q", i, b.Key)
		}
		seen[b.Key] = struct{}{}
	}
	return nil
}
