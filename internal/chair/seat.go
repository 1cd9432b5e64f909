package chair

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/seatcraft/server/internal/core/ecs"
	"github.com/seatcraft/server/internal/scheduler"
)

// SeatState is the lifecycle position of one seat.
type SeatState uint8

const (
	StateRequested SeatState = iota
	StateSpawning
	StateActive
	StateTearingDown
	StateGone
)

func (s SeatState) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateSpawning:
		return "spawning"
	case StateActive:
		return "active"
	case StateTearingDown:
		return "tearing_down"
	case StateGone:
		return "gone"
	}
	return "unknown"
}

// TeardownReason labels why a seat was removed.
type TeardownReason string

const (
	ReasonBlockRemoved TeardownReason = "block_removed"
	ReasonVacant       TeardownReason = "vacant"
	ReasonDamaged      TeardownReason = "damaged"
	ReasonDuplicate    TeardownReason = "duplicate"
	ReasonVanished     TeardownReason = "vanished"
)

// Outcome is the result of a seat request.
type Outcome uint8

const (
	OutcomeRequested   Outcome = iota // spawn scheduled
	OutcomeOccupied                   // a seat at the anchor is in use or pending; dropped silently
	OutcomeEvicted                    // an idle seat at the anchor was torn down instead
	OutcomeCoolingDown                // the actor's cooldown window is still open
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRequested:
		return "requested"
	case OutcomeOccupied:
		return "occupied"
	case OutcomeEvicted:
		return "evicted"
	case OutcomeCoolingDown:
		return "cooling_down"
	}
	return "unknown"
}

// Seat is one proxy seat entity and the block it is anchored to.
type Seat struct {
	ID        ecs.EntityID // zero until spawned
	Dimension string
	Anchor    cube.Pos
	Rider     ecs.EntityID
	Yaw       float64

	state SeatState
	poll  *scheduler.Task
}

func (s *Seat) State() SeatState { return s.state }

type anchorKey struct {
	dim string
	pos cube.Pos
}
