package chair

import (
	"sort"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/seatcraft/server/internal/config"
	"github.com/seatcraft/server/internal/core/ecs"
	"github.com/seatcraft/server/internal/core/event"
	"github.com/seatcraft/server/internal/scheduler"
	"github.com/seatcraft/server/internal/scripting"
	"github.com/seatcraft/server/internal/world"
	"go.uber.org/zap"
)

// Host is the part of the world the chair add-on reads and mutates.
// *world.State satisfies it.
type Host interface {
	Dimensions() []string
	Block(dim string, pos cube.Pos) world.Permutation
	SpawnEntity(dim, typeID string, pos mgl64.Vec3) (ecs.EntityID, bool)
	Entity(id ecs.EntityID) (world.Entity, bool)
	EntitiesOfType(dim, typeID string) []world.Entity
	SetRotation(id ecs.EntityID, pitch, yaw float64) bool
	AddRider(vehicle, rider ecs.EntityID) bool
	RemoveEntity(id ecs.EntityID) bool
	Player(id ecs.EntityID) (world.Player, bool)
	PlayersNear(dim string, pos mgl64.Vec3, radius float64) []world.Player
}

// Manager owns every seat the add-on spawned: the seat id to anchor mapping,
// the per-seat poll task and the per-actor cooldown gate.
// Accessed only from the game loop goroutine.
type Manager struct {
	host       Host
	sched      *scheduler.Scheduler
	cfg        config.ChairsConfig
	classifier *Classifier
	yaw        func(facing string) float64
	cooldown   *scheduler.Cooldown[ecs.EntityID]
	metrics    *Metrics
	log        *zap.Logger

	seats    map[ecs.EntityID]*Seat
	pending  map[anchorKey]*Seat       // admitted requests waiting for their spawn tick
	removing map[ecs.EntityID]struct{} // seat entities with a removal queued
}

// NewManager creates a manager with an empty seat map. yaw maps a facing
// state value to degrees; nil uses the built-in cardinal table.
func NewManager(host Host, sched *scheduler.Scheduler, cfg config.ChairsConfig, classifier *Classifier,
	yaw func(string) float64, metrics *Metrics, log *zap.Logger) *Manager {
	if yaw == nil {
		yaw = scripting.DefaultSeatYaw
	}
	return &Manager{
		host:       host,
		sched:      sched,
		cfg:        cfg,
		classifier: classifier,
		yaw:        yaw,
		cooldown:   scheduler.NewCooldown[ecs.EntityID](sched, cfg.CooldownTicks),
		metrics:    metrics,
		log:        log,
		seats:      make(map[ecs.EntityID]*Seat),
		pending:    make(map[anchorKey]*Seat),
		removing:   make(map[ecs.EntityID]struct{}),
	}
}

// Request asks for a seat on the block at anchor for rider. Callers have
// already validated the interaction; Request applies the duplicate-anchor
// guard and the cooldown gate, then schedules the spawn.
func (m *Manager) Request(rider ecs.EntityID, dim string, anchor cube.Pos) Outcome {
	key := anchorKey{dim: dim, pos: anchor}
	if _, busy := m.pending[key]; busy {
		m.reject(OutcomeOccupied, rider, key)
		return OutcomeOccupied
	}

	if existing, ok := m.seatAt(dim, anchor); ok {
		if m.occupied(existing) {
			m.reject(OutcomeOccupied, rider, key)
			return OutcomeOccupied
		}
		m.teardownEntity(existing.ID, ReasonDuplicate)
		return OutcomeEvicted
	}

	if !m.cooldown.TryAcquire(rider) {
		m.reject(OutcomeCoolingDown, rider, key)
		return OutcomeCoolingDown
	}

	seat := &Seat{Dimension: dim, Anchor: anchor, Rider: rider, state: StateRequested}
	m.pending[key] = seat
	m.sched.RunTimeout(func() { m.spawn(seat) }, m.cfg.SpawnDelayTicks)
	return OutcomeRequested
}

func (m *Manager) reject(o Outcome, rider ecs.EntityID, key anchorKey) {
	m.metrics.requestRejected(o.String())
	m.log.Debug("seat request dropped",
		zap.Stringer("outcome", o),
		zap.Stringer("rider", rider),
		zap.String("dimension", key.dim),
		zap.String("anchor", world.PosString(key.pos)))
}

// seatAt finds a live seat entity whose floored position is anchor.
func (m *Manager) seatAt(dim string, anchor cube.Pos) (world.Entity, bool) {
	for _, e := range m.host.EntitiesOfType(dim, m.cfg.SeatEntity) {
		if cube.PosFromVec3(e.Pos) == anchor {
			return e, true
		}
	}
	return world.Entity{}, false
}

// occupied reports whether any player stands within the occupancy radius of e.
func (m *Manager) occupied(e world.Entity) bool {
	for _, p := range m.host.PlayersNear(e.Dimension, e.Pos, m.cfg.OccupancyRadius) {
		if WithinRadius(p.Pos, e.Pos, m.cfg.OccupancyRadius) {
			return true
		}
	}
	return false
}

// spawn runs after the spawn delay. Everything captured at request time is
// re-checked because the world may have moved on since.
func (m *Manager) spawn(seat *Seat) {
	key := anchorKey{dim: seat.Dimension, pos: seat.Anchor}
	defer delete(m.pending, key)
	seat.state = StateSpawning

	p, ok := m.host.Player(seat.Rider)
	if !ok || p.Dimension != seat.Dimension {
		m.abandon(seat, "rider gone")
		return
	}
	if _, exists := m.seatAt(seat.Dimension, seat.Anchor); exists {
		m.abandon(seat, "anchor taken")
		return
	}
	block := m.host.Block(seat.Dimension, seat.Anchor)
	if m.classifier.IsBreathable(block.TypeID) {
		m.abandon(seat, "anchor block removed")
		return
	}

	facing, _ := block.State(m.cfg.FacingState)
	yaw := m.yaw(facing)
	id, ok := m.host.SpawnEntity(seat.Dimension, m.cfg.SeatEntity, seat.Anchor.Vec3Middle())
	if !ok {
		m.abandon(seat, "spawn failed")
		return
	}
	m.host.SetRotation(id, 0, yaw)
	if !m.host.AddRider(id, seat.Rider) {
		m.host.RemoveEntity(id)
		m.abandon(seat, "rider not attached")
		return
	}

	seat.ID = id
	seat.Yaw = yaw
	seat.state = StateActive
	m.seats[id] = seat
	seat.poll = m.sched.RunInterval(func() { m.poll(seat) }, m.cfg.PollIntervalTicks)
	m.metrics.seatSpawned()
	m.log.Info("seat spawned",
		zap.Stringer("seat", id),
		zap.Stringer("rider", seat.Rider),
		zap.String("dimension", seat.Dimension),
		zap.String("anchor", world.PosString(seat.Anchor)),
		zap.Float64("yaw", yaw))
}

func (m *Manager) abandon(seat *Seat, why string) {
	seat.state = StateGone
	m.log.Debug("seat spawn abandoned",
		zap.String("reason", why),
		zap.Stringer("rider", seat.Rider),
		zap.String("dimension", seat.Dimension),
		zap.String("anchor", world.PosString(seat.Anchor)))
}

// poll re-validates an active seat once per poll interval.
func (m *Manager) poll(seat *Seat) {
	if seat.state != StateActive {
		seat.poll.Cancel()
		return
	}
	e, ok := m.host.Entity(seat.ID)
	if !ok {
		seat.state = StateGone
		seat.poll.Cancel()
		delete(m.seats, seat.ID)
		m.metrics.seatTornDown(ReasonVanished, true)
		m.log.Info("seat vanished", zap.Stringer("seat", seat.ID), zap.String("anchor", world.PosString(seat.Anchor)))
		return
	}
	if m.classifier.IsBreathable(m.host.Block(seat.Dimension, seat.Anchor).TypeID) {
		m.teardown(seat, ReasonBlockRemoved)
		return
	}
	if len(m.host.PlayersNear(e.Dimension, e.Pos, m.cfg.PresenceRadius)) == 0 {
		m.teardown(seat, ReasonVacant)
	}
}

// teardown forgets a tracked seat now and removes its entity after the
// settle delay. The queued removal is not retracted if the seat is re-occupied.
func (m *Manager) teardown(seat *Seat, reason TeardownReason) {
	seat.state = StateTearingDown
	delete(m.seats, seat.ID)
	if seat.poll != nil {
		seat.poll.Cancel()
	}
	m.metrics.seatTornDown(reason, true)
	m.log.Info("seat torn down",
		zap.Stringer("seat", seat.ID),
		zap.String("reason", string(reason)),
		zap.String("dimension", seat.Dimension),
		zap.String("anchor", world.PosString(seat.Anchor)))
	m.queueRemoval(seat.ID, func() { seat.state = StateGone })
}

// teardownEntity tears down a seat entity by id, tracked or not. Seats that
// already have a removal queued are left alone.
func (m *Manager) teardownEntity(id ecs.EntityID, reason TeardownReason) {
	if seat, ok := m.seats[id]; ok {
		m.teardown(seat, reason)
		return
	}
	if _, queued := m.removing[id]; queued {
		return
	}
	m.metrics.seatTornDown(reason, false)
	m.log.Info("untracked seat torn down", zap.Stringer("seat", id), zap.String("reason", string(reason)))
	m.queueRemoval(id, nil)
}

func (m *Manager) queueRemoval(id ecs.EntityID, done func()) {
	m.removing[id] = struct{}{}
	m.sched.RunTimeout(func() {
		delete(m.removing, id)
		m.host.RemoveEntity(id)
		if done != nil {
			done()
		}
	}, m.cfg.SettleDelayTicks)
}

// OnEntityHurt tears down every seat within the presence radius of a
// damaged player, independent of the poll cycle.
func (m *Manager) OnEntityHurt(ev event.EntityHurt) {
	if ev.TypeID != world.PlayerType {
		return
	}
	p, ok := m.host.Player(ev.Entity)
	if !ok {
		return
	}
	for _, e := range m.host.EntitiesOfType(p.Dimension, m.cfg.SeatEntity) {
		if WithinRadius(p.Pos, e.Pos, m.cfg.PresenceRadius) {
			m.teardownEntity(e.ID, ReasonDamaged)
		}
	}
}

// Sweep schedules the startup purge of leftover seat entities in every
// dimension, once the world is queryable.
func (m *Manager) Sweep() *scheduler.Task {
	return m.sched.RunTimeout(func() { m.sweepNow() }, m.cfg.SweepDelayTicks)
}

func (m *Manager) sweepNow() int {
	n := 0
	for _, dim := range m.host.Dimensions() {
		for _, e := range m.host.EntitiesOfType(dim, m.cfg.SeatEntity) {
			if seat, ok := m.seats[e.ID]; ok {
				seat.state = StateGone
				seat.poll.Cancel()
				delete(m.seats, e.ID)
				m.metrics.seatDropped()
			}
			if m.host.RemoveEntity(e.ID) {
				n++
			}
		}
	}
	m.metrics.orphansSwept(n)
	m.log.Info("seat sweep complete", zap.Int("removed", n))
	return n
}

// Lookup returns a copy of the tracked seat with entity id.
func (m *Manager) Lookup(id ecs.EntityID) (Seat, bool) {
	s, ok := m.seats[id]
	if !ok {
		return Seat{}, false
	}
	return *s, true
}

// Seats returns copies of all tracked seats ordered by entity id.
func (m *Manager) Seats() []Seat {
	out := make([]Seat, 0, len(m.seats))
	for _, s := range m.seats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of tracked seats.
func (m *Manager) Count() int { return len(m.seats) }

// CoolingDown reports whether actor is inside its cooldown window.
func (m *Manager) CoolingDown(actor ecs.EntityID) bool { return m.cooldown.Active(actor) }
