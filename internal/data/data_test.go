package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadBlockVocabulary_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "blocks.yaml", "breathable_markers: [sign, rail]\n")
	v, err := LoadBlockVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"sign", "rail"}, v.BreathableMarkers)
	assert.Contains(t, v.Breathable, "minecraft:air")
	assert.Equal(t, "chair", v.ChairMarker)
}

func TestLoadBlockVocabulary_Errors(t *testing.T) {
	_, err := LoadBlockVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadBlockVocabulary(writeFile(t, "bad.yaml", "breathable: {not: [a list"))
	assert.Error(t, err)

	_, err = LoadBlockVocabulary(writeFile(t, "empty.yaml", "chair_marker: \"\"\n"))
	assert.Error(t, err)
}

func TestLoadWorldFixture(t *testing.T) {
	path := writeFile(t, "world.yaml", `
spawn: {dimension: "minecraft:overworld", x: 0.5, y: 65, z: 0.5}
blocks:
  - {x: 0, y: 64, z: 0, type: minecraft:stone}
  - dimension: minecraft:nether
    x: 1
    y: 64
    z: 0
    type: furniture:oak_chair
    states: {"minecraft:cardinal_direction": south}
`)
	f, err := LoadWorldFixture(path)
	require.NoError(t, err)
	require.Equal(t, 2, f.Count())
	assert.Equal(t, "minecraft:overworld", f.Blocks[0].Dimension, "dimension defaults to the spawn dimension")
	assert.Equal(t, "south", f.Blocks[1].States["minecraft:cardinal_direction"])
}

func TestLoadWorldFixture_BlockWithoutType(t *testing.T) {
	_, err := LoadWorldFixture(writeFile(t, "world.yaml", "blocks:\n  - {x: 0, y: 0, z: 0}\n"))
	assert.Error(t, err)
}

func TestRepoFixturesParse(t *testing.T) {
	v, err := LoadBlockVocabulary("../../data/yaml/blocks.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultBlockVocabulary(), v)

	f, err := LoadWorldFixture("../../data/yaml/world.yaml")
	require.NoError(t, err)
	assert.NotZero(t, f.Count())
}
