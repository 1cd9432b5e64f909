package chair

import (
	"math"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/seatcraft/server/internal/core/event"
	"github.com/seatcraft/server/internal/world"
	"go.uber.org/zap"
)

// Decision is what the gateway concluded about one item-use interaction.
// CancelDefault and AttemptSeat are independent: a chair click without
// sneaking suppresses the default action but never seats.
type Decision struct {
	CancelDefault bool
	AttemptSeat   bool
	Reason        string // first failed check, "sit" when all passed
}

// GatewayRules are the tables and bounds the gateway validates against.
type GatewayRules struct {
	ItemDenylist      []string // matched as substrings of the lowercased item type
	ChairMarker       string   // substring identifying the chair block family
	MaxVerticalOffset int
}

// Gateway is the entry point for "use item on block": it validates the
// interaction and hands admitted sit requests to the Manager.
type Gateway struct {
	host       Host
	manager    *Manager
	classifier *Classifier
	rules      GatewayRules
	log        *zap.Logger
}

func NewGateway(host Host, manager *Manager, classifier *Classifier, rules GatewayRules, log *zap.Logger) *Gateway {
	return &Gateway{
		host:       host,
		manager:    manager,
		classifier: classifier,
		rules:      rules,
		log:        log,
	}
}

// Decide runs the checks in order and stops at the first failure.
func (g *Gateway) Decide(ev *event.ItemUseOn) Decision {
	if ev.ItemType == "" {
		return Decision{Reason: "no_item"}
	}
	item := strings.ToLower(ev.ItemType)
	for _, denied := range g.rules.ItemDenylist {
		if strings.Contains(item, denied) {
			return Decision{Reason: "denied_item"}
		}
	}
	block := g.host.Block(ev.Dimension, ev.Block)
	if !strings.Contains(block.TypeID, g.rules.ChairMarker) {
		return Decision{Reason: "not_chair"}
	}

	// From here on the click targets a chair, so the default action is
	// suppressed whatever the remaining checks say.
	p, ok := g.host.Player(ev.Source)
	if !ok {
		return Decision{CancelDefault: true, Reason: "no_player"}
	}
	if !p.Sneaking {
		return Decision{CancelDefault: true, Reason: "not_sneaking"}
	}
	if !g.classifier.IsBreathable(g.host.Block(ev.Dimension, ev.Block.Side(cube.FaceUp)).TypeID) {
		return Decision{CancelDefault: true, Reason: "no_headroom"}
	}
	if ev.Face == cube.FaceDown {
		return Decision{CancelDefault: true, Reason: "bottom_face"}
	}
	if !p.OnGround {
		return Decision{CancelDefault: true, Reason: "not_grounded"}
	}
	playerY := int(math.Floor(p.Pos.Y()))
	if abs(ev.Block.Y()-playerY) >= g.rules.MaxVerticalOffset {
		return Decision{CancelDefault: true, Reason: "vertical_offset"}
	}
	return Decision{CancelDefault: true, AttemptSeat: true, Reason: "sit"}
}

// HandleItemUseOn is the ItemUseOn before-event handler.
func (g *Gateway) HandleItemUseOn(ev *event.ItemUseOn) {
	d := g.Decide(ev)
	if d.CancelDefault {
		ev.Cancel = true
	}
	if !d.AttemptSeat {
		if d.CancelDefault {
			g.manager.metrics.requestRejected(d.Reason)
			g.log.Debug("sit check failed",
				zap.Stringer("player", ev.Source),
				zap.String("block", world.PosString(ev.Block)),
				zap.String("reason", d.Reason))
		}
		return
	}
	g.manager.Request(ev.Source, ev.Dimension, ev.Block)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
