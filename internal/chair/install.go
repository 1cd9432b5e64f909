package chair

import "github.com/seatcraft/server/internal/core/event"

// Install subscribes the add-on to the host events it consumes.
func Install(bus *event.Bus, g *Gateway, m *Manager) {
	event.SubscribeBefore(bus, g.HandleItemUseOn)
	event.Subscribe(bus, m.OnEntityHurt)
}
