package event

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/seatcraft/server/internal/core/ecs"
)

// ItemUseOn is fired before a player's item is used on a block. Handlers set
// Cancel to suppress the host's default action (placing the held block).
type ItemUseOn struct {
	Source    ecs.EntityID
	Dimension string
	Block     cube.Pos
	Face      cube.Face
	ItemType  string // empty when the selected slot holds nothing
	Cancel    bool
}

// EntityHurt is emitted after an entity took damage.
type EntityHurt struct {
	Entity ecs.EntityID
	TypeID string
	Damage int
}

// EntityRemoved is emitted after an entity was queued for removal.
type EntityRemoved struct {
	Entity ecs.EntityID
	TypeID string
}

type PlayerJoined struct {
	Entity ecs.EntityID
	Name   string
}

type PlayerLeft struct {
	Entity ecs.EntityID
	Name   string
}

// BlockChanged is emitted after a block permutation was written.
type BlockChanged struct {
	Dimension string
	Pos       cube.Pos
	OldType   string
	NewType   string
}
