package system

import (
	"time"

	coresys "github.com/seatcraft/server/internal/core/system"
	"github.com/seatcraft/server/internal/world"
)

// RideSyncSystem moves riders onto their vehicles after the update phase.
// Phase 3 (PostUpdate).
type RideSyncSystem struct {
	world *world.State
}

func NewRideSyncSystem(ws *world.State) *RideSyncSystem {
	return &RideSyncSystem{world: ws}
}

func (s *RideSyncSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RideSyncSystem) Update(_ time.Duration) {
	s.world.SyncRiders()
}
