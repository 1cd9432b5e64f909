package chair

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/seatcraft/server/internal/component"
	"github.com/seatcraft/server/internal/config"
	"github.com/seatcraft/server/internal/core/ecs"
	"github.com/seatcraft/server/internal/core/event"
	"github.com/seatcraft/server/internal/data"
	"github.com/seatcraft/server/internal/scheduler"
	"github.com/seatcraft/server/internal/world"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	overworld = "minecraft:overworld"
	nether    = "minecraft:nether"
	seatType  = "seatcraft:seat"
	chairType = "furniture:oak_chair"
	facing    = "minecraft:cardinal_direction"
)

var chairPos = cube.Pos{0, 65, 0}

type harness struct {
	t       *testing.T
	state   *world.State
	bus     *event.Bus
	sched   *scheduler.Scheduler
	metrics *Metrics
	mgr     *Manager
	gw      *Gateway
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithYaw(t, nil)
}

func newHarnessWithYaw(t *testing.T, yaw func(string) float64) *harness {
	t.Helper()
	log := zap.NewNop()
	cfg := config.Defaults()
	vocab := data.DefaultBlockVocabulary()

	bus := event.NewBus()
	state := world.NewState(ecs.NewWorld(), bus, world.Options{
		Dimensions: []string{overworld, nether},
	}, log)
	state.RegisterRideable(cfg.Chairs.SeatEntity, 1)
	sched := scheduler.New(log)
	metrics := NewMetrics(prometheus.NewRegistry())
	classifier := NewClassifier(vocab.Breathable, vocab.BreathableMarkers)
	mgr := NewManager(state, sched, cfg.Chairs, classifier, yaw, metrics, log)
	gw := NewGateway(state, mgr, classifier, GatewayRules{
		ItemDenylist:      vocab.ItemDenylist,
		ChairMarker:       vocab.ChairMarker,
		MaxVerticalOffset: cfg.Chairs.MaxVerticalOffset,
	}, log)
	Install(bus, gw, mgr)

	for x := -2; x <= 2; x++ {
		for z := -2; z <= 2; z++ {
			state.SetBlock(overworld, cube.Pos{x, 64, z}, world.Block("minecraft:stone"))
		}
	}
	state.SetBlock(overworld, chairPos, world.Block(chairType, facing, "north"))
	state.TakeDirtyBlocks()

	return &harness{t: t, state: state, bus: bus, sched: sched, metrics: metrics, mgr: mgr, gw: gw}
}

// tick runs n host ticks in the same phase order as the server loop.
func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.bus.SwapBuffers()
		h.bus.DispatchAll()
		h.sched.Advance()
		h.state.SyncRiders()
		h.state.ECS().FlushDestroyQueue()
	}
}

// join adds a player standing next to the chair, holding planks.
func (h *harness) join(name string) ecs.EntityID {
	h.t.Helper()
	id, err := h.state.Join(name, overworld, mgl64.Vec3{0.5, 65, 1.5})
	require.NoError(h.t, err)
	h.state.Hold(id, component.ItemStack{TypeID: "minecraft:oak_planks", Count: 4})
	return id
}

func (h *harness) seatEntities(dim string) []world.Entity {
	return h.state.EntitiesOfType(dim, seatType)
}
