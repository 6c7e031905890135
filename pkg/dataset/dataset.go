// Package dataset loads the inventory of managed QuickSight datasets from
// YAML files, one file per dataset.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bvmarkets/quickrefresh/pkg/sqlrewrite"
)

// Spec describes one managed dataset. Specs are immutable after load; the
// dataset's query itself lives in the remote QuickSight definition.
type Spec struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Description       string `yaml:"description,omitempty"`
	RollingWindowDays int    `yaml:"rollingWindowDays"`
	DateColumn        string `yaml:"dateColumn,omitempty"` // defaults to yyyymmdd
}

// LoadFromFile reads and validates a single dataset spec.
func LoadFromFile(path string) (Spec, error) {
	var s Spec

	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}

	if len(data) == 0 {
		return s, fmt.Errorf("empty dataset file")
	}

	if unmarshalErr := yaml.Unmarshal(data, &s); unmarshalErr != nil {
		return s, unmarshalErr
	}

	if s.ID == "" {
		return s, fmt.Errorf("dataset id is required")
	}

	if s.Name == "" {
		return s, fmt.Errorf("dataset name is required")
	}

	if s.RollingWindowDays < 1 {
		return s, fmt.Errorf("dataset %s: rollingWindowDays must be at least 1", s.ID)
	}

	if s.DateColumn == "" {
		s.DateColumn = sqlrewrite.DefaultColumn
	}

	return s, nil
}

// LoadDir loads every *.yaml dataset spec under dir. Files that fail to
// parse abort the load; the inventory must be complete before a run starts.
func LoadDir(dir string) ([]Spec, error) {
	var specs []Spec

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		s, err := LoadFromFile(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}

		specs = append(specs, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("no dataset specs found in %s", dir)
	}

	return specs, nil
}
