package system

import (
	"time"

	"github.com/seatcraft/server/internal/core/event"
	coresys "github.com/seatcraft/server/internal/core/system"
)

// EventDispatchSystem delivers the after-events emitted during the previous
// tick. Phase 1 (PreUpdate).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
