package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/seatcraft/server/internal/component"
	"github.com/seatcraft/server/internal/core/ecs"
	"github.com/seatcraft/server/internal/core/event"
	"go.uber.org/zap"
)

const defaultMaxHealth = 20

var (
	ErrNameTaken        = errors.New("player name already in world")
	ErrUnknownDimension = errors.New("unknown dimension")
)

// Player is a read-only snapshot of a connected player.
type Player struct {
	ID        ecs.EntityID
	Name      string
	Dimension string
	Pos       mgl64.Vec3
	Sneaking  bool
	OnGround  bool
	Health    int
	Held      component.ItemStack
	Vehicle   ecs.EntityID // zero when not riding
}

// Join spawns a player entity standing at pos.
func (s *State) Join(name, dim string, pos mgl64.Vec3) (ecs.EntityID, error) {
	if _, taken := s.byName[name]; taken {
		return 0, fmt.Errorf("join %q: %w", name, ErrNameTaken)
	}
	id, ok := s.SpawnEntity(dim, PlayerType, pos)
	if !ok {
		return 0, fmt.Errorf("join %q in %s: %w", name, dim, ErrUnknownDimension)
	}
	s.actors.Set(id, &component.Actor{
		Name:      name,
		OnGround:  true,
		Health:    defaultMaxHealth,
		MaxHealth: defaultMaxHealth,
	})
	s.byName[name] = id
	event.Emit(s.bus, event.PlayerJoined{Entity: id, Name: name})
	s.log.Info("player joined", zap.String("name", name), zap.String("dimension", dim), zap.String("pos", VecString(pos)))
	return id, nil
}

// Leave removes a player from the world.
func (s *State) Leave(id ecs.EntityID) bool {
	a, ok := s.actors.Get(id)
	if !ok || !s.live(id) {
		return false
	}
	name := a.Name
	delete(s.byName, name)
	s.RemoveEntity(id)
	event.Emit(s.bus, event.PlayerLeft{Entity: id, Name: name})
	s.log.Info("player left", zap.String("name", name))
	return true
}

func (s *State) Player(id ecs.EntityID) (Player, bool) {
	a, ok := s.actors.Get(id)
	if !ok || !s.live(id) {
		return Player{}, false
	}
	return s.playerSnapshot(id, a), true
}

func (s *State) PlayerByName(name string) (Player, bool) {
	id, ok := s.byName[name]
	if !ok {
		return Player{}, false
	}
	return s.Player(id)
}

func (s *State) playerSnapshot(id ecs.EntityID, a *component.Actor) Player {
	p := Player{
		ID:       id,
		Name:     a.Name,
		Sneaking: a.Sneaking,
		OnGround: a.OnGround,
		Health:   a.Health,
		Held:     a.Selected(),
	}
	if t, ok := s.transforms.Get(id); ok {
		p.Dimension = t.Dimension
		p.Pos = t.Pos
	}
	if link, ok := s.riding.Get(id); ok {
		p.Vehicle = link.Vehicle
	}
	return p
}

// Players returns all connected players ordered by name.
func (s *State) Players() []Player {
	var out []Player
	ecs.Each2(s.actors, s.transforms, func(id ecs.EntityID, a *component.Actor, _ *component.Transform) {
		if s.live(id) {
			out = append(out, s.playerSnapshot(id, a))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllPlayers calls fn for every connected player, ordered by name.
func (s *State) AllPlayers(fn func(Player)) {
	for _, p := range s.Players() {
		fn(p)
	}
}

// PlayerCount returns the number of connected players.
func (s *State) PlayerCount() int { return len(s.byName) }

// PlayersNear returns players in dim within radius of pos (inclusive).
// radius must not exceed the grid column width.
func (s *State) PlayersNear(dim string, pos mgl64.Vec3, radius float64) []Player {
	var out []Player
	for _, id := range s.grid.nearby(dim, pos) {
		a, ok := s.actors.Get(id)
		if !ok || !s.live(id) {
			continue
		}
		t, ok := s.transforms.Get(id)
		if !ok || t.Dimension != dim || t.Pos.Sub(pos).Len() > radius {
			continue
		}
		out = append(out, s.playerSnapshot(id, a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Teleport moves a player, dismounting it first.
func (s *State) Teleport(id ecs.EntityID, dim string, pos mgl64.Vec3) bool {
	if _, ok := s.actors.Get(id); !ok || !s.live(id) || !s.HasDimension(dim) {
		return false
	}
	s.Dismount(id)
	s.setPosition(id, dim, pos)
	return true
}

// SetSneaking toggles sneaking. Starting to sneak while riding dismounts.
func (s *State) SetSneaking(id ecs.EntityID, sneaking bool) bool {
	a, ok := s.actors.Get(id)
	if !ok || !s.live(id) {
		return false
	}
	if sneaking && !a.Sneaking {
		s.Dismount(id)
	}
	a.Sneaking = sneaking
	return true
}

func (s *State) SetOnGround(id ecs.EntityID, onGround bool) bool {
	a, ok := s.actors.Get(id)
	if !ok || !s.live(id) {
		return false
	}
	a.OnGround = onGround
	return true
}

// Hold puts stack into the selected hotbar slot.
func (s *State) Hold(id ecs.EntityID, stack component.ItemStack) bool {
	a, ok := s.actors.Get(id)
	if !ok || !s.live(id) {
		return false
	}
	a.Hotbar[a.SelectedSlot] = stack
	return true
}

func (s *State) SelectSlot(id ecs.EntityID, slot int) bool {
	a, ok := s.actors.Get(id)
	if !ok || !s.live(id) || slot < 0 || slot >= component.HotbarSize {
		return false
	}
	a.SelectedSlot = slot
	return true
}

// Damage reduces health (never below zero) and emits EntityHurt.
func (s *State) Damage(id ecs.EntityID, amount int) bool {
	if amount <= 0 || !s.live(id) {
		return false
	}
	typeID := ""
	if k, ok := s.kinds.Get(id); ok {
		typeID = k.TypeID
	}
	if a, ok := s.actors.Get(id); ok {
		a.Health -= amount
		if a.Health < 0 {
			a.Health = 0
		}
	}
	event.Emit(s.bus, event.EntityHurt{Entity: id, TypeID: typeID, Damage: amount})
	return true
}

// SendMessage appends text to the player's inbox, dropping the oldest line
// once the inbox is full.
func (s *State) SendMessage(id ecs.EntityID, text string) {
	a, ok := s.actors.Get(id)
	if !ok {
		return
	}
	a.Inbox = append(a.Inbox, text)
	if over := len(a.Inbox) - s.opts.InboxSize; over > 0 {
		a.Inbox = append(a.Inbox[:0:0], a.Inbox[over:]...)
	}
	s.log.Debug("message", zap.String("to", a.Name), zap.String("text", text))
}

// Inbox returns a copy of the player's received messages.
func (s *State) Inbox(id ecs.EntityID) []string {
	a, ok := s.actors.Get(id)
	if !ok {
		return nil
	}
	return append([]string(nil), a.Inbox...)
}

// UseItemOn performs "player uses the held item on a block face". The
// ItemUseOn before-event runs first; unless a handler cancels it, the default
// action places the held block against the clicked face and consumes one item.
// Returns true when the default action ran.
func (s *State) UseItemOn(id ecs.EntityID, pos cube.Pos, face cube.Face) bool {
	a, ok := s.actors.Get(id)
	if !ok || !s.live(id) {
		return false
	}
	t, ok := s.transforms.Get(id)
	if !ok {
		return false
	}
	held := a.Selected()
	ev := event.ItemUseOn{
		Source:    id,
		Dimension: t.Dimension,
		Block:     pos,
		Face:      face,
	}
	if !held.Empty() {
		ev.ItemType = held.TypeID
	}
	event.Fire(s.bus, &ev)
	if ev.Cancel {
		return false
	}
	if held.Empty() || (s.opts.Placeable != nil && !s.opts.Placeable(held.TypeID)) {
		return false
	}
	target := pos.Side(face)
	if !s.Block(t.Dimension, target).IsAir() {
		return false
	}
	s.SetBlock(t.Dimension, target, Permutation{TypeID: held.TypeID})
	slot := &a.Hotbar[a.SelectedSlot]
	slot.Count--
	if slot.Count <= 0 {
		*slot = component.ItemStack{}
	}
	return true
}
