package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeatYaw_Fallback(t *testing.T) {
	e, err := NewEngine("", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 0.0, e.SeatYaw("north"))
	assert.Equal(t, 270.0, e.SeatYaw("west"))
	assert.Equal(t, 180.0, e.SeatYaw("south"))
	assert.Equal(t, 90.0, e.SeatYaw("east"))
	assert.Equal(t, 0.0, e.SeatYaw(""))
	assert.Equal(t, 0.0, e.SeatYaw("up"))
}

func TestSeatYaw_HookOverrides(t *testing.T) {
	e, err := NewEngineFromSource(`
function seat_yaw(direction)
  if direction == "north" then return 45 end
  return "not a number"
end`, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 45.0, e.SeatYaw("north"))
	assert.Equal(t, 90.0, e.SeatYaw("east"), "non-number results fall back")
}

func TestSeatYaw_HookErrorFallsBack(t *testing.T) {
	e, err := NewEngineFromSource(`function seat_yaw(d) error("boom") end`, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 180.0, e.SeatYaw("south"))
}

func TestWrenchCycle(t *testing.T) {
	e, err := NewEngineFromSource(`
local C = { ["minecraft:cardinal_direction"] = { "north", "west" } }
function wrench_cycle(state) return C[state] end`, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, []string{"north", "west"}, e.WrenchCycle("minecraft:cardinal_direction"))
	assert.Nil(t, e.WrenchCycle("pillar_axis"), "a nil hook result disables the state")
}

func TestRepoScriptsLoad(t *testing.T) {
	e, err := NewEngine("../../scripts", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 270.0, e.SeatYaw("west"))
	assert.Equal(t, []string{"north", "east", "south", "west"}, e.WrenchCycle("minecraft:cardinal_direction"))
	assert.Equal(t, []string{"0", "1", "2", "3"}, e.WrenchCycle("weirdo_direction"))
	assert.Nil(t, e.WrenchCycle("color"))
}

func TestNewEngineFromSource_SyntaxError(t *testing.T) {
	_, err := NewEngineFromSource("function (", zap.NewNop())
	assert.Error(t, err)
}
