package world

import (
	"sort"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/seatcraft/server/internal/component"
	"github.com/seatcraft/server/internal/core/ecs"
	"github.com/seatcraft/server/internal/core/event"
	"go.uber.org/zap"
)

// dimension holds the placed blocks of one world partition. Positions absent
// from the map are air.
type dimension struct {
	id     string
	blocks map[cube.Pos]Permutation
	dirty  map[cube.Pos]struct{}
}

// Options configures a State.
type Options struct {
	Dimensions []string
	InboxSize  int
	// Placeable decides whether an item places a block by default when used on
	// a block face. Nil means every item places.
	Placeable func(itemType string) bool
}

// State is the in-memory host world: blocks per dimension plus the entities
// (players, seats, anything spawned) kept in ECS component stores.
// Accessed only from the game loop goroutine, no locks needed.
type State struct {
	ecs  *ecs.World
	bus  *event.Bus
	log  *zap.Logger
	opts Options

	dims     map[string]*dimension
	dimOrder []string
	grid     *entityGrid

	transforms *ecs.Store[component.Transform]
	kinds      *ecs.Store[component.Kind]
	rideables  *ecs.Store[component.Rideable]
	riding     *ecs.Store[component.Riding]
	actors     *ecs.Store[component.Actor]

	byName    map[string]ecs.EntityID
	seatCount map[string]int // rideable entity types and their rider capacity
}

func NewState(w *ecs.World, bus *event.Bus, opts Options, log *zap.Logger) *State {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 32
	}
	s := &State{
		ecs:        w,
		bus:        bus,
		log:        log,
		opts:       opts,
		dims:       make(map[string]*dimension, len(opts.Dimensions)),
		grid:       newEntityGrid(),
		transforms: ecs.NewStore[component.Transform](),
		kinds:      ecs.NewStore[component.Kind](),
		rideables:  ecs.NewStore[component.Rideable](),
		riding:     ecs.NewStore[component.Riding](),
		actors:     ecs.NewStore[component.Actor](),
		byName:     make(map[string]ecs.EntityID),
		seatCount:  make(map[string]int),
	}
	w.Register(s.transforms)
	w.Register(s.kinds)
	w.Register(s.rideables)
	w.Register(s.riding)
	w.Register(s.actors)
	for _, id := range opts.Dimensions {
		if _, ok := s.dims[id]; ok {
			continue
		}
		s.dims[id] = &dimension{
			id:     id,
			blocks: make(map[cube.Pos]Permutation),
			dirty:  make(map[cube.Pos]struct{}),
		}
		s.dimOrder = append(s.dimOrder, id)
	}
	return s
}

// ECS exposes the entity world for the cleanup system.
func (s *State) ECS() *ecs.World { return s.ecs }

// Dimensions returns the dimension ids in configuration order.
func (s *State) Dimensions() []string {
	out := make([]string, len(s.dimOrder))
	copy(out, s.dimOrder)
	return out
}

func (s *State) HasDimension(id string) bool {
	_, ok := s.dims[id]
	return ok
}

// RegisterRideable makes every entity of typeID spawn with rider capacity seats.
func (s *State) RegisterRideable(typeID string, seats int) {
	s.seatCount[typeID] = seats
}

// ── Blocks ─────────────────────────────────────────────────────────

// Block returns the permutation at pos. Unknown dimensions and empty
// positions read as air.
func (s *State) Block(dim string, pos cube.Pos) Permutation {
	d := s.dims[dim]
	if d == nil {
		return Air()
	}
	if p, ok := d.blocks[pos]; ok {
		return p
	}
	return Air()
}

// SetBlock writes a permutation, marks it dirty for persistence and emits
// BlockChanged. Returns false for an unknown dimension.
func (s *State) SetBlock(dim string, pos cube.Pos, p Permutation) bool {
	d := s.dims[dim]
	if d == nil {
		return false
	}
	old := s.Block(dim, pos)
	if p.IsAir() {
		delete(d.blocks, pos)
	} else {
		d.blocks[pos] = p
	}
	d.dirty[pos] = struct{}{}
	event.Emit(s.bus, event.BlockChanged{Dimension: dim, Pos: pos, OldType: old.TypeID, NewType: p.TypeID})
	return true
}

// LoadBlock writes a permutation without events or dirty tracking. Used when
// restoring a snapshot or seeding from a fixture.
func (s *State) LoadBlock(dim string, pos cube.Pos, p Permutation) bool {
	d := s.dims[dim]
	if d == nil {
		return false
	}
	if p.IsAir() {
		delete(d.blocks, pos)
		return true
	}
	d.blocks[pos] = p
	return true
}

// BlockRecord is one block position with its current permutation.
type BlockRecord struct {
	Dimension string
	Pos       cube.Pos
	Block     Permutation
}

// TakeDirtyBlocks returns every block changed since the last call and clears
// the dirty sets. Removed blocks come back as air.
func (s *State) TakeDirtyBlocks() []BlockRecord {
	var out []BlockRecord
	for _, id := range s.dimOrder {
		d := s.dims[id]
		for pos := range d.dirty {
			out = append(out, BlockRecord{Dimension: id, Pos: pos, Block: s.Block(id, pos)})
		}
		d.dirty = make(map[cube.Pos]struct{})
	}
	return out
}

// BlockCount returns the number of non-air blocks across all dimensions.
func (s *State) BlockCount() int {
	n := 0
	for _, d := range s.dims {
		n += len(d.blocks)
	}
	return n
}

// ── Entities ───────────────────────────────────────────────────────

// Entity is a read-only snapshot of a live entity.
type Entity struct {
	ID        ecs.EntityID
	TypeID    string
	Dimension string
	Pos       mgl64.Vec3
	Pitch     float64
	Yaw       float64
	Riders    []ecs.EntityID
}

// SpawnEntity creates an entity of typeID at pos. Returns false for an
// unknown dimension.
func (s *State) SpawnEntity(dim, typeID string, pos mgl64.Vec3) (ecs.EntityID, bool) {
	if !s.HasDimension(dim) {
		return 0, false
	}
	id := s.ecs.CreateEntity()
	s.transforms.Set(id, &component.Transform{Dimension: dim, Pos: pos})
	s.kinds.Set(id, &component.Kind{TypeID: typeID})
	if seats, ok := s.seatCount[typeID]; ok {
		s.rideables.Set(id, &component.Rideable{Seats: seats})
	}
	s.grid.add(id, dim, pos)
	return id, true
}

// live reports whether id resolves to an entity that is not queued for removal.
func (s *State) live(id ecs.EntityID) bool {
	return s.ecs.Alive(id) && !s.ecs.Doomed(id)
}

// Entity resolves id. Entities queued for removal no longer resolve.
func (s *State) Entity(id ecs.EntityID) (Entity, bool) {
	if !s.live(id) {
		return Entity{}, false
	}
	return s.snapshot(id), true
}

func (s *State) snapshot(id ecs.EntityID) Entity {
	e := Entity{ID: id}
	if k, ok := s.kinds.Get(id); ok {
		e.TypeID = k.TypeID
	}
	if t, ok := s.transforms.Get(id); ok {
		e.Dimension = t.Dimension
		e.Pos = t.Pos
		e.Pitch = t.Pitch
		e.Yaw = t.Yaw
	}
	if r, ok := s.rideables.Get(id); ok && len(r.Riders) > 0 {
		e.Riders = append([]ecs.EntityID(nil), r.Riders...)
	}
	return e
}

// EntitiesOfType lists live entities of typeID in dim, ordered by id.
func (s *State) EntitiesOfType(dim, typeID string) []Entity {
	var out []Entity
	s.kinds.Each(func(id ecs.EntityID, k *component.Kind) {
		if k.TypeID != typeID || !s.live(id) {
			return
		}
		if t, ok := s.transforms.Get(id); ok && t.Dimension == dim {
			out = append(out, s.snapshot(id))
		}
	})
	sortEntities(out)
	return out
}

// NonPlayerEntities lists every live entity that is not a player, ordered by id.
func (s *State) NonPlayerEntities() []Entity {
	var out []Entity
	s.kinds.Each(func(id ecs.EntityID, k *component.Kind) {
		if k.TypeID == PlayerType || !s.live(id) {
			return
		}
		out = append(out, s.snapshot(id))
	})
	sortEntities(out)
	return out
}

func sortEntities(es []Entity) {
	sort.Slice(es, func(i, j int) bool { return es[i].ID < es[j].ID })
}

// SetRotation sets pitch and yaw in degrees.
func (s *State) SetRotation(id ecs.EntityID, pitch, yaw float64) bool {
	t, ok := s.transforms.Get(id)
	if !ok || !s.live(id) {
		return false
	}
	t.Pitch = pitch
	t.Yaw = yaw
	return true
}

// RemoveEntity queues id for destruction at the end of the tick, dismounting
// its riders and itself. Removing a missing entity is a no-op returning false.
func (s *State) RemoveEntity(id ecs.EntityID) bool {
	if !s.live(id) {
		return false
	}
	if r, ok := s.rideables.Get(id); ok {
		for _, rider := range append([]ecs.EntityID(nil), r.Riders...) {
			s.Dismount(rider)
		}
	}
	s.Dismount(id)
	typeID := ""
	if k, ok := s.kinds.Get(id); ok {
		typeID = k.TypeID
	}
	if t, ok := s.transforms.Get(id); ok {
		s.grid.remove(id, t.Dimension, t.Pos)
	}
	s.ecs.MarkForDestruction(id)
	event.Emit(s.bus, event.EntityRemoved{Entity: id, TypeID: typeID})
	return true
}

// EntityCount returns the number of live entities, players included.
func (s *State) EntityCount() int {
	n := 0
	s.kinds.Each(func(id ecs.EntityID, _ *component.Kind) {
		if s.live(id) {
			n++
		}
	})
	return n
}

// ── Riding ─────────────────────────────────────────────────────────

// AddRider seats rider on vehicle. The vehicle must be rideable with a free
// seat. A rider already on another vehicle is moved. Riders stop sneaking.
func (s *State) AddRider(vehicle, rider ecs.EntityID) bool {
	if vehicle == rider || !s.live(vehicle) || !s.live(rider) {
		return false
	}
	r, ok := s.rideables.Get(vehicle)
	if !ok {
		return false
	}
	for _, existing := range r.Riders {
		if existing == rider {
			return true
		}
	}
	if len(r.Riders) >= r.Seats {
		return false
	}
	s.Dismount(rider)
	r.Riders = append(r.Riders, rider)
	s.riding.Set(rider, &component.Riding{Vehicle: vehicle})
	if a, ok := s.actors.Get(rider); ok {
		a.Sneaking = false
	}
	s.followVehicle(rider, vehicle)
	return true
}

// Dismount takes id off whatever it rides. Returns false if it was not riding.
func (s *State) Dismount(id ecs.EntityID) bool {
	link, ok := s.riding.Get(id)
	if !ok {
		return false
	}
	s.riding.Remove(id)
	if r, ok := s.rideables.Get(link.Vehicle); ok {
		kept := r.Riders[:0]
		for _, rider := range r.Riders {
			if rider != id {
				kept = append(kept, rider)
			}
		}
		r.Riders = kept
	}
	return true
}

// Vehicle returns what id rides, if anything.
func (s *State) Vehicle(id ecs.EntityID) (ecs.EntityID, bool) {
	link, ok := s.riding.Get(id)
	if !ok {
		return 0, false
	}
	return link.Vehicle, true
}

// SyncRiders moves every rider onto its vehicle's position. Riders whose
// vehicle vanished are dismounted.
func (s *State) SyncRiders() {
	var lost []ecs.EntityID
	s.riding.Each(func(id ecs.EntityID, link *component.Riding) {
		if !s.live(link.Vehicle) {
			lost = append(lost, id)
			return
		}
		s.followVehicle(id, link.Vehicle)
	})
	for _, id := range lost {
		s.Dismount(id)
	}
}

func (s *State) followVehicle(rider, vehicle ecs.EntityID) {
	vt, ok := s.transforms.Get(vehicle)
	if !ok {
		return
	}
	s.setPosition(rider, vt.Dimension, vt.Pos)
	if a, ok := s.actors.Get(rider); ok {
		a.OnGround = true
	}
}

func (s *State) setPosition(id ecs.EntityID, dim string, pos mgl64.Vec3) {
	t, ok := s.transforms.Get(id)
	if !ok {
		return
	}
	s.grid.move(id, t.Dimension, t.Pos, dim, pos)
	t.Dimension = dim
	t.Pos = pos
}
