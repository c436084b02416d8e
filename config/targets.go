package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dealmungchi/jobcrawler/helpers"
)

// TargetSet is a named list of targets crawled together
type TargetSet struct {
	Targets    []string `yaml:"targets"`
	MaxResults int      `yaml:"max_results"`
}

type targetSetsFile struct {
	Sets map[string]TargetSet `yaml:"sets"`
}

// DefaultTargetSets returns the built-in sets
func DefaultTargetSets() map[string]TargetSet {
	return map[string]TargetSet{
		"default": {
			Targets:    []string{"Dallas", "Arizona", "Washington", "Iowa", "California", "New York"},
			MaxResults: 150,
		},
	}
}

// LoadTargetSets reads named target sets from a YAML file
func LoadTargetSets(path string) (map[string]TargetSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTargetSets(data)
}

// ParseTargetSets decodes target sets from YAML.
// Blank targets are dropped; a set left with no targets is an error.
func ParseTargetSets(data []byte) (map[string]TargetSet, error) {
	var file targetSetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid target sets file: %w", err)
	}

	sets := make(map[string]TargetSet, len(file.Sets))
	for name, set := range file.Sets {
		var targets []string
		for _, t := range set.Targets {
			if t = helpers.CollapseSpaces(t); t != "" {
				targets = append(targets, t)
			}
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("target set %q has no targets", name)
		}
		if set.MaxResults < 0 {
			return nil, fmt.Errorf("target set %q has a negative max_results", name)
		}
		sets[name] = TargetSet{Targets: targets, MaxResults: set.MaxResults}
	}
	return sets, nil
}
