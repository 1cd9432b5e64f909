package chair

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/seatcraft/server/internal/component"
	"github.com/seatcraft/server/internal/core/event"
	"github.com/seatcraft/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide_OrderedChecks(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness, ev *event.ItemUseOn)
		cancel  bool
		attempt bool
		reason  string
	}{
		{
			name:    "all checks pass",
			cancel:  true,
			attempt: true,
			reason:  "sit",
		},
		{
			name:   "empty hand",
			setup:  func(_ *harness, ev *event.ItemUseOn) { ev.ItemType = "" },
			reason: "no_item",
		},
		{
			name:   "denylisted item, case insensitive",
			setup:  func(_ *harness, ev *event.ItemUseOn) { ev.ItemType = "minecraft:Water_BUCKET" },
			reason: "denied_item",
		},
		{
			name:   "holding a chair places it",
			setup:  func(_ *harness, ev *event.ItemUseOn) { ev.ItemType = chairType },
			reason: "denied_item",
		},
		{
			name:   "holding the wrench",
			setup:  func(_ *harness, ev *event.ItemUseOn) { ev.ItemType = "seatcraft:wrench" },
			reason: "denied_item",
		},
		{
			name: "not a chair",
			setup: func(_ *harness, ev *event.ItemUseOn) {
				ev.Block = cube.Pos{1, 64, 1}
			},
			reason: "not_chair",
		},
		{
			name: "not sneaking",
			setup: func(h *harness, ev *event.ItemUseOn) {
				h.state.SetSneaking(ev.Source, false)
			},
			cancel: true,
			reason: "not_sneaking",
		},
		{
			name: "solid block above",
			setup: func(h *harness, _ *event.ItemUseOn) {
				h.state.SetBlock(overworld, chairPos.Side(cube.FaceUp), world.Block("minecraft:stone"))
			},
			cancel: true,
			reason: "no_headroom",
		},
		{
			name: "thin fixture above leaves headroom",
			setup: func(h *harness, _ *event.ItemUseOn) {
				h.state.SetBlock(overworld, chairPos.Side(cube.FaceUp), world.Block("minecraft:oak_trapdoor"))
			},
			cancel:  true,
			attempt: true,
			reason:  "sit",
		},
		{
			name:   "bottom face",
			setup:  func(_ *harness, ev *event.ItemUseOn) { ev.Face = cube.FaceDown },
			cancel: true,
			reason: "bottom_face",
		},
		{
			name: "airborne",
			setup: func(h *harness, ev *event.ItemUseOn) {
				h.state.SetOnGround(ev.Source, false)
			},
			cancel: true,
			reason: "not_grounded",
		},
		{
			name: "three blocks below",
			setup: func(h *harness, ev *event.ItemUseOn) {
				h.state.Teleport(ev.Source, overworld, mgl64.Vec3{0.5, 62, 1.5})
				h.state.SetSneaking(ev.Source, true)
			},
			cancel: true,
			reason: "vertical_offset",
		},
		{
			name: "two blocks above",
			setup: func(h *harness, ev *event.ItemUseOn) {
				h.state.Teleport(ev.Source, overworld, mgl64.Vec3{0.5, 67.9, 1.5})
				h.state.SetSneaking(ev.Source, true)
			},
			cancel:  true,
			attempt: true,
			reason:  "sit",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			alice := h.join("alice")
			h.state.SetSneaking(alice, true)
			ev := &event.ItemUseOn{
				Source:    alice,
				Dimension: overworld,
				Block:     chairPos,
				Face:      cube.FaceNorth,
				ItemType:  "minecraft:oak_planks",
			}
			if tt.setup != nil {
				tt.setup(h, ev)
			}

			d := h.gw.Decide(ev)
			assert.Equal(t, tt.cancel, d.CancelDefault, "cancel")
			assert.Equal(t, tt.attempt, d.AttemptSeat, "attempt")
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestNormalClick_CancelsDefaultWithoutSeat(t *testing.T) {
	h := newHarness(t)
	alice := h.join("alice")

	assert.False(t, h.state.UseItemOn(alice, chairPos, cube.FaceNorth), "default action cancelled")
	assert.True(t, h.state.Block(overworld, chairPos.Side(cube.FaceNorth)).IsAir())
	p, _ := h.state.Player(alice)
	assert.Equal(t, 4, p.Held.Count, "no item consumed")

	h.tick(20)
	assert.Empty(t, h.seatEntities(overworld))
	assert.False(t, h.mgr.CoolingDown(alice))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.rejected.WithLabelValues("not_sneaking")))
}

func TestNonChairClick_DefaultPlacementRuns(t *testing.T) {
	h := newHarness(t)
	alice := h.join("alice")
	ground := cube.Pos{1, 64, 1}

	assert.True(t, h.state.UseItemOn(alice, ground, cube.FaceUp))
	assert.Equal(t, "minecraft:oak_planks", h.state.Block(overworld, ground.Side(cube.FaceUp)).TypeID)
}

func TestHoldingChair_PlacesAgainstChair(t *testing.T) {
	h := newHarness(t)
	alice := h.join("alice")
	h.state.SetSneaking(alice, true)
	require.True(t, h.state.Hold(alice, component.ItemStack{TypeID: chairType, Count: 1}))

	assert.True(t, h.state.UseItemOn(alice, chairPos, cube.FaceEast))
	assert.Equal(t, chairType, h.state.Block(overworld, chairPos.Side(cube.FaceEast)).TypeID)
	h.tick(5)
	assert.Empty(t, h.seatEntities(overworld))
}
