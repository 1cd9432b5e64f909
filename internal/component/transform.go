package component

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform places an entity in a dimension.
// Pure data. Mutations happen in world.State methods and systems.
type Transform struct {
	Dimension string
	Pos       mgl64.Vec3
	Pitch     float64
	Yaw       float64 // degrees, 0 = north
}

// Kind is the entity type identifier, e.g. "minecraft:player" or "seatcraft:seat".
type Kind struct {
	TypeID string
}
