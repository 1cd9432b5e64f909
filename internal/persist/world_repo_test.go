package persist

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/seatcraft/server/internal/core/ecs"
	"github.com/seatcraft/server/internal/core/event"
	"github.com/seatcraft/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const overworld = "minecraft:overworld"

func newState() *world.State {
	return world.NewState(ecs.NewWorld(), event.NewBus(), world.Options{Dimensions: []string{overworld}}, zap.NewNop())
}

func TestBlockRowsFrom_DirtyBlocks(t *testing.T) {
	ws := newState()
	ws.SetBlock(overworld, cube.Pos{1, 65, 2}, world.Block("furniture:oak_chair", "minecraft:cardinal_direction", "west"))
	ws.SetBlock(overworld, cube.Pos{0, 64, 0}, world.Block("minecraft:stone"))
	ws.SetBlock(overworld, cube.Pos{0, 64, 0}, world.Air())

	rows := BlockRowsFrom(ws.TakeDirtyBlocks())
	require.Len(t, rows, 2)
	byType := map[string]BlockRow{}
	for _, r := range rows {
		byType[r.TypeID] = r
	}
	chair := byType["furniture:oak_chair"]
	assert.Equal(t, BlockRow{
		Dimension: overworld, X: 1, Y: 65, Z: 2,
		TypeID: "furniture:oak_chair",
		States: map[string]string{"minecraft:cardinal_direction": "west"},
	}, chair)
	assert.Contains(t, byType, world.AirType, "removed blocks are saved as deletions")
}

func TestRestore_RoundTripsSnapshot(t *testing.T) {
	src := newState()
	src.SetBlock(overworld, cube.Pos{1, 65, 2}, world.Block("furniture:oak_chair", "minecraft:cardinal_direction", "west"))
	seat, _ := src.SpawnEntity(overworld, "seatcraft:seat", mgl64.Vec3{1.5, 65, 2.5})
	src.SetRotation(seat, 0, 270)
	_, err := src.Join("alice", overworld, mgl64.Vec3{0, 0, 0})
	require.NoError(t, err)

	blocks := BlockRowsFrom(src.TakeDirtyBlocks())
	entities := EntityRowsFrom(src.NonPlayerEntities())
	require.Len(t, entities, 1, "players are not part of the snapshot")

	dst := newState()
	nb, ne := Restore(dst, blocks, append(entities, EntityRow{Dimension: "minecraft:moon", TypeID: "x"}))
	assert.Equal(t, 1, nb)
	assert.Equal(t, 1, ne)
	assert.Empty(t, dst.TakeDirtyBlocks(), "restoring does not mark blocks dirty")

	v, _ := dst.Block(overworld, cube.Pos{1, 65, 2}).State("minecraft:cardinal_direction")
	assert.Equal(t, "west", v)
	restored := dst.EntitiesOfType(overworld, "seatcraft:seat")
	require.Len(t, restored, 1)
	assert.Equal(t, 270.0, restored[0].Yaw)
	assert.Equal(t, mgl64.Vec3{1.5, 65, 2.5}, restored[0].Pos)
}
