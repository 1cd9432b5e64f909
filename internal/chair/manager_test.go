package chair

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/seatcraft/server/internal/core/ecs"
	"github.com/seatcraft/server/internal/scripting"
	"github.com/seatcraft/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sit performs a sneak-click on the chair's north face and waits out the spawn delay.
func (h *harness) sit(name string) (player, seat ecs.EntityID) {
	h.t.Helper()
	alice := h.join(name)
	require.True(h.t, h.state.SetSneaking(alice, true))
	assert.False(h.t, h.state.UseItemOn(alice, chairPos, cube.FaceNorth), "default action is suppressed")
	h.tick(5)
	seats := h.mgr.Seats()
	require.Len(h.t, seats, 1)
	return alice, seats[0].ID
}

func TestSneakClick_SpawnsSeatFacingBlock(t *testing.T) {
	h := newHarness(t)
	alice := h.join("alice")
	h.state.SetSneaking(alice, true)

	assert.False(t, h.state.UseItemOn(alice, chairPos, cube.FaceNorth))
	assert.True(t, h.state.Block(overworld, chairPos.Side(cube.FaceNorth)).IsAir(), "no block placed")

	h.tick(4)
	assert.Empty(t, h.seatEntities(overworld), "spawn waits for the settle delay")
	h.tick(1)

	seats := h.seatEntities(overworld)
	require.Len(t, seats, 1)
	seat := seats[0]
	assert.Equal(t, mgl64.Vec3{0.5, 65, 0.5}, seat.Pos)
	assert.Equal(t, 0.0, seat.Yaw)
	assert.Equal(t, []ecs.EntityID{alice}, seat.Riders)

	tracked, ok := h.mgr.Lookup(seat.ID)
	require.True(t, ok)
	assert.Equal(t, StateActive, tracked.State())
	assert.Equal(t, chairPos, tracked.Anchor)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.spawned))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.active))

	p, _ := h.state.Player(alice)
	assert.Equal(t, seat.ID, p.Vehicle)
	assert.False(t, p.Sneaking)

	h.tick(30)
	assert.Equal(t, 1, h.mgr.Count(), "an occupied seat survives polling")
}

func TestSpawn_YawFollowsFacing(t *testing.T) {
	for facingValue, want := range map[string]float64{
		"north": 0, "west": 270, "south": 180, "east": 90, "": 0, "up": 0,
	} {
		h := newHarness(t)
		block := world.Block(chairType)
		if facingValue != "" {
			block = block.WithState(facing, facingValue)
		}
		h.state.SetBlock(overworld, chairPos, block)
		h.sit("alice")
		assert.Equal(t, want, h.mgr.Seats()[0].Yaw, facingValue)
		assert.Equal(t, want, h.seatEntities(overworld)[0].Yaw, facingValue)
	}
}

func TestSpawn_LuaYawHook(t *testing.T) {
	engine, err := scripting.NewEngineFromSource(`
function seat_yaw(direction)
  if direction == "north" then return 45 end
  return nil
end`, zap.NewNop())
	require.NoError(t, err)
	defer engine.Close()

	h := newHarnessWithYaw(t, engine.SeatYaw)
	h.sit("alice")
	assert.Equal(t, 45.0, h.seatEntities(overworld)[0].Yaw)
}

func TestAnchorReplacedByLiquid_TearsDownOnNextPoll(t *testing.T) {
	h := newHarness(t)
	_, seatID := h.sit("alice")
	seat := h.seatEntities(overworld)[0]
	require.Equal(t, seatID, seat.ID)

	h.state.SetBlock(overworld, chairPos, world.Block("minecraft:water"))
	h.tick(9)
	assert.Equal(t, 1, h.mgr.Count(), "nothing happens before the poll")

	h.tick(1)
	assert.Equal(t, 0, h.mgr.Count(), "map entry is dropped at teardown")
	_, alive := h.state.Entity(seat.ID)
	assert.True(t, alive, "entity removal waits for the settle delay")

	h.tick(4)
	_, alive = h.state.Entity(seat.ID)
	assert.True(t, alive)
	h.tick(1)
	_, alive = h.state.Entity(seat.ID)
	assert.False(t, alive)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.tornDown.WithLabelValues(string(ReasonBlockRemoved))))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.active))
}

func TestVacantSeat_TornDown(t *testing.T) {
	h := newHarness(t)
	h.sit("alice")
	p, _ := h.state.PlayerByName("alice")
	require.True(t, h.state.Teleport(p.ID, overworld, mgl64.Vec3{10, 65, 10}))

	h.tick(10)
	assert.Equal(t, 0, h.mgr.Count())
	h.tick(5)
	assert.Empty(t, h.seatEntities(overworld))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.tornDown.WithLabelValues(string(ReasonVacant))))
}

func TestDismountedRiderNearby_KeepsSeat(t *testing.T) {
	h := newHarness(t)
	h.sit("alice")
	p, _ := h.state.PlayerByName("alice")
	h.state.SetSneaking(p.ID, true)
	_, riding := h.state.Vehicle(p.ID)
	require.False(t, riding)

	h.tick(20)
	assert.Equal(t, 1, h.mgr.Count(), "presence counts, not riding")
}

func TestDamage_TearsDownIndependentOfPoll(t *testing.T) {
	h := newHarness(t)
	h.sit("alice")
	seat := h.seatEntities(overworld)[0]
	p, _ := h.state.PlayerByName("alice")

	require.True(t, h.state.Damage(p.ID, 1))
	h.tick(1)
	assert.Equal(t, 0, h.mgr.Count(), "hurt event is handled on the next tick")

	h.tick(3)
	_, alive := h.state.Entity(seat.ID)
	assert.True(t, alive)
	h.tick(1)
	_, alive = h.state.Entity(seat.ID)
	assert.False(t, alive)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.tornDown.WithLabelValues(string(ReasonDamaged))))
}

func TestDamage_NonPlayerIgnored(t *testing.T) {
	h := newHarness(t)
	h.sit("alice")
	seat := h.seatEntities(overworld)[0]

	require.True(t, h.state.Damage(seat.ID, 1))
	h.tick(1)
	assert.Equal(t, 1, h.mgr.Count())
}

func TestDamage_FarPlayerIgnored(t *testing.T) {
	h := newHarness(t)
	h.sit("alice")
	bob, err := h.state.Join("bob", overworld, mgl64.Vec3{2.5, 65, 2.5})
	require.NoError(t, err)

	h.state.Damage(bob, 1)
	h.tick(1)
	assert.Equal(t, 1, h.mgr.Count())
}

func TestIdleSeatAtAnchor_EvictedWithoutCooldown(t *testing.T) {
	h := newHarness(t)
	orphan, ok := h.state.SpawnEntity(overworld, seatType, chairPos.Vec3Middle())
	require.True(t, ok)
	alice := h.join("alice")

	assert.Equal(t, OutcomeEvicted, h.mgr.Request(alice, overworld, chairPos))
	assert.False(t, h.mgr.CoolingDown(alice), "eviction does not consume the cooldown")
	assert.Equal(t, OutcomeEvicted, h.mgr.Request(alice, overworld, chairPos), "eviction already queued")

	h.tick(5)
	_, alive := h.state.Entity(orphan)
	assert.False(t, alive)
	assert.Equal(t, 0, h.mgr.Count(), "no seat is created in place of the idle one")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.tornDown.WithLabelValues(string(ReasonDuplicate))))

	assert.Equal(t, OutcomeRequested, h.mgr.Request(alice, overworld, chairPos))
}

func TestOccupiedSeatAtAnchor_RequestDropped(t *testing.T) {
	h := newHarness(t)
	_, seatID := h.sit("alice")
	bob := h.join("bob")

	assert.Equal(t, OutcomeOccupied, h.mgr.Request(bob, overworld, chairPos))
	assert.False(t, h.mgr.CoolingDown(bob))
	h.tick(10)
	seats := h.seatEntities(overworld)
	require.Len(t, seats, 1)
	assert.Equal(t, seatID, seats[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.rejected.WithLabelValues(OutcomeOccupied.String())))
}

func TestConcurrentRequests_OneSeatPerAnchor(t *testing.T) {
	h := newHarness(t)
	alice := h.join("alice")
	bob := h.join("bob")

	assert.Equal(t, OutcomeRequested, h.mgr.Request(alice, overworld, chairPos))
	assert.Equal(t, OutcomeOccupied, h.mgr.Request(bob, overworld, chairPos))

	h.tick(5)
	require.Len(t, h.seatEntities(overworld), 1)
	assert.Equal(t, 1, h.mgr.Count())
	assert.Equal(t, alice, h.mgr.Seats()[0].Rider)
}

func TestSpawn_RevalidatesAfterDelay(t *testing.T) {
	t.Run("anchor taken meanwhile", func(t *testing.T) {
		h := newHarness(t)
		alice := h.join("alice")
		require.Equal(t, OutcomeRequested, h.mgr.Request(alice, overworld, chairPos))
		h.state.SpawnEntity(overworld, seatType, chairPos.Vec3Middle())
		h.tick(5)
		assert.Len(t, h.seatEntities(overworld), 1)
		assert.Equal(t, 0, h.mgr.Count())
	})
	t.Run("chair broken meanwhile", func(t *testing.T) {
		h := newHarness(t)
		alice := h.join("alice")
		require.Equal(t, OutcomeRequested, h.mgr.Request(alice, overworld, chairPos))
		h.state.SetBlock(overworld, chairPos, world.Air())
		h.tick(5)
		assert.Empty(t, h.seatEntities(overworld))
	})
	t.Run("rider left meanwhile", func(t *testing.T) {
		h := newHarness(t)
		alice := h.join("alice")
		require.Equal(t, OutcomeRequested, h.mgr.Request(alice, overworld, chairPos))
		h.state.Leave(alice)
		h.tick(5)
		assert.Empty(t, h.seatEntities(overworld))
		assert.Equal(t, OutcomeRequested, h.mgr.Request(h.join("bob"), overworld, chairPos),
			"the anchor is free again")
	})
}

func TestCooldown_BlocksSecondRequestInWindow(t *testing.T) {
	h := newHarness(t)
	other := cube.Pos{2, 65, 0}
	h.state.SetBlock(overworld, other, world.Block(chairType, facing, "west"))
	alice := h.join("alice")

	require.Equal(t, OutcomeRequested, h.mgr.Request(alice, overworld, chairPos))
	h.tick(4)
	assert.Equal(t, OutcomeCoolingDown, h.mgr.Request(alice, overworld, other))
	assert.True(t, h.mgr.CoolingDown(alice))
	h.tick(1)
	assert.False(t, h.mgr.CoolingDown(alice))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.rejected.WithLabelValues(OutcomeCoolingDown.String())))
}

func TestExternalRemoval_PollForgetsSeat(t *testing.T) {
	h := newHarness(t)
	_, seatID := h.sit("alice")
	seat := h.seatEntities(overworld)[0]
	require.Equal(t, seatID, seat.ID)

	h.state.RemoveEntity(seat.ID)
	h.tick(10)
	assert.Equal(t, 0, h.mgr.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.tornDown.WithLabelValues(string(ReasonVanished))))
	assert.Equal(t, 0, h.sched.Pending(), "poll task cancelled")
}

func TestSweep_RemovesLeftoverSeatsInEveryDimension(t *testing.T) {
	h := newHarness(t)
	a, _ := h.state.SpawnEntity(overworld, seatType, mgl64.Vec3{3.5, 65, 3.5})
	b, _ := h.state.SpawnEntity(nether, seatType, mgl64.Vec3{0.5, 40, 0.5})
	other, _ := h.state.SpawnEntity(overworld, "minecraft:armor_stand", mgl64.Vec3{1, 65, 1})

	h.mgr.Sweep()
	_, alive := h.state.Entity(a)
	assert.True(t, alive, "sweep waits one tick")

	h.tick(1)
	assert.Empty(t, h.seatEntities(overworld))
	assert.Empty(t, h.seatEntities(nether))
	assert.False(t, h.state.ECS().Alive(b))
	_, alive = h.state.Entity(other)
	assert.True(t, alive)
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.swept))
}

func TestSweep_IdempotentWhenEmpty(t *testing.T) {
	h := newHarness(t)
	h.mgr.Sweep()
	h.tick(1)
	h.mgr.Sweep()
	h.tick(1)
	assert.Equal(t, 0, h.mgr.Count())
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.swept))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.seatSpawned()
		m.seatTornDown(ReasonVacant, true)
		m.requestRejected("x")
		m.orphansSwept(3)
		m.seatDropped()
	})
}
