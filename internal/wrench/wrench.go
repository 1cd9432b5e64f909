// Package wrench implements the wrench tool: sneak-click picks which block
// state to adjust, a normal click advances that state to its next value.
package wrench

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/seatcraft/server/internal/config"
	"github.com/seatcraft/server/internal/core/ecs"
	"github.com/seatcraft/server/internal/core/event"
	"github.com/seatcraft/server/internal/scheduler"
	"github.com/seatcraft/server/internal/world"
	"go.uber.org/zap"
)

// Host is the part of the world the wrench reads and mutates.
type Host interface {
	Block(dim string, pos cube.Pos) world.Permutation
	SetBlock(dim string, pos cube.Pos, p world.Permutation) bool
	Player(id ecs.EntityID) (world.Player, bool)
	SendMessage(id ecs.EntityID, text string)
}

// Cycles returns the ordered values a state cycles through, nil if the
// wrench leaves it alone. *scripting.Engine implements it.
type Cycles interface {
	WrenchCycle(state string) []string
}

type Wrench struct {
	host     Host
	cycles   Cycles
	item     string
	cooldown *scheduler.Cooldown[ecs.EntityID]
	selected map[ecs.EntityID]string // state each player last picked
	changes  prometheus.Counter
	log      *zap.Logger
}

// New creates the wrench. A nil reg leaves the change counter unregistered.
func New(host Host, sched *scheduler.Scheduler, cfg config.WrenchConfig, cycles Cycles,
	reg prometheus.Registerer, log *zap.Logger) *Wrench {
	w := &Wrench{
		host:     host,
		cycles:   cycles,
		item:     cfg.Item,
		cooldown: scheduler.NewCooldown[ecs.EntityID](sched, cfg.CooldownTicks),
		selected: make(map[ecs.EntityID]string),
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wrench",
			Name:      "state_changes_total",
			Help:      "Block states advanced with the wrench.",
		}),
		log: log,
	}
	if reg != nil {
		reg.MustRegister(w.changes)
	}
	return w
}

// Install subscribes the wrench to the host events it consumes.
func (w *Wrench) Install(bus *event.Bus) {
	event.SubscribeBefore(bus, w.HandleItemUseOn)
	event.Subscribe(bus, func(ev event.PlayerLeft) { delete(w.selected, ev.Entity) })
}

// HandleItemUseOn is the ItemUseOn before-event handler. Any click with the
// wrench suppresses the default action.
func (w *Wrench) HandleItemUseOn(ev *event.ItemUseOn) {
	if ev.ItemType != w.item {
		return
	}
	ev.Cancel = true
	if !w.cooldown.TryAcquire(ev.Source) {
		return
	}
	p, ok := w.host.Player(ev.Source)
	if !ok {
		return
	}

	block := w.host.Block(ev.Dimension, ev.Block)
	states := w.adjustable(block)
	if len(states) == 0 {
		w.host.SendMessage(p.ID, fmt.Sprintf("%s has no adjustable states", block.TypeID))
		return
	}

	if p.Sneaking {
		state := next(states, w.selected[p.ID])
		w.selected[p.ID] = state
		value, _ := block.State(state)
		w.host.SendMessage(p.ID, fmt.Sprintf("%s: %s", state, value))
		return
	}

	state := w.selected[p.ID]
	if indexOf(states, state) < 0 {
		state = states[0]
		w.selected[p.ID] = state
	}
	current, _ := block.State(state)
	value := next(w.cycles.WrenchCycle(state), current)
	w.host.SetBlock(ev.Dimension, ev.Block, block.WithState(state, value))
	w.changes.Inc()
	w.host.SendMessage(p.ID, fmt.Sprintf("%s: %s", state, value))
	w.log.Debug("wrench adjusted block",
		zap.String("player", p.Name),
		zap.String("pos", world.PosString(ev.Block)),
		zap.String("state", state),
		zap.String("value", value))
}

// adjustable lists the block's states the wrench can cycle, sorted by name.
func (w *Wrench) adjustable(block world.Permutation) []string {
	var out []string
	for _, name := range block.StateNames() {
		if len(w.cycles.WrenchCycle(name)) > 0 {
			out = append(out, name)
		}
	}
	return out
}

// Selected returns the state player last picked, if any.
func (w *Wrench) Selected(player ecs.EntityID) (string, bool) {
	s, ok := w.selected[player]
	return s, ok
}

// next returns the element after cur, wrapping around. An unknown cur
// yields the first element.
func next(values []string, cur string) string {
	i := indexOf(values, cur)
	return values[(i+1)%len(values)]
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}
