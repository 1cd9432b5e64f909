package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BlockVocabulary holds the identifier tables the add-ons classify blocks and
// items with. Markers are matched as substrings of the identifier.
type BlockVocabulary struct {
	Breathable        []string `yaml:"breathable"`
	BreathableMarkers []string `yaml:"breathable_markers"`
	ItemDenylist      []string `yaml:"item_denylist"`
	ChairMarker       string   `yaml:"chair_marker"`
	NonBlockItems     []string `yaml:"non_block_items"`
}

// DefaultBlockVocabulary returns the built-in tables.
func DefaultBlockVocabulary() *BlockVocabulary {
	return &BlockVocabulary{
		Breathable: []string{
			"minecraft:air", "minecraft:frame", "minecraft:glow_frame", "minecraft:painting",
			"minecraft:banner", "minecraft:water", "minecraft:lava",
		},
		BreathableMarkers: []string{"sign", "gate", "door", "button", "torch", "lever", "rod", "chain"},
		// "chair" keeps a held chair from sitting on another chair instead of placing it.
		ItemDenylist:  []string{"debug", "bucket", "spawn_egg", "steel", "chair", "wrench"},
		ChairMarker:   "chair",
		NonBlockItems: []string{"wrench", "bucket", "spawn_egg", "stick", "flint_and_steel", "debug"},
	}
}

// LoadBlockVocabulary reads blocks.yaml. Sections missing from the file keep
// their built-in values.
func LoadBlockVocabulary(path string) (*BlockVocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read block vocabulary: %w", err)
	}
	v := DefaultBlockVocabulary()
	if err := yaml.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("parse block vocabulary: %w", err)
	}
	if v.ChairMarker == "" {
		return nil, fmt.Errorf("block vocabulary %s: chair_marker must not be empty", path)
	}
	return v, nil
}
