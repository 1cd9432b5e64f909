package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FixtureBlock is one block placement in a world fixture.
type FixtureBlock struct {
	Dimension string            `yaml:"dimension"`
	X         int               `yaml:"x"`
	Y         int               `yaml:"y"`
	Z         int               `yaml:"z"`
	Type      string            `yaml:"type"`
	States    map[string]string `yaml:"states,omitempty"`
}

// SpawnPoint is where joining players appear when no position is given.
type SpawnPoint struct {
	Dimension string  `yaml:"dimension"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Z         float64 `yaml:"z"`
}

// WorldFixture seeds an empty world.
type WorldFixture struct {
	Spawn  SpawnPoint     `yaml:"spawn"`
	Blocks []FixtureBlock `yaml:"blocks"`
}

// LoadWorldFixture reads world.yaml.
func LoadWorldFixture(path string) (*WorldFixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world fixture: %w", err)
	}
	var f WorldFixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse world fixture: %w", err)
	}
	for i, b := range f.Blocks {
		if b.Type == "" {
			return nil, fmt.Errorf("world fixture %s: block %d has no type", path, i)
		}
		if b.Dimension == "" {
			f.Blocks[i].Dimension = f.Spawn.Dimension
		}
	}
	return &f, nil
}

// Count returns the number of block placements.
func (f *WorldFixture) Count() int {
	return len(f.Blocks)
}
