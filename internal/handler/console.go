package handler

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/seatcraft/server/internal/component"
	"github.com/seatcraft/server/internal/world"
	"go.uber.org/zap"
)

// HandleCommand runs one operator console line, writing replies to out.
// Returns false for blank lines.
func HandleCommand(out io.Writer, text string, deps *Deps) bool {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return false
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	deps.Log.Debug("console command", zap.String("cmd", cmd), zap.Strings("args", args))

	switch cmd {
	case "help":
		cmdHelp(out)
	case "join":
		cmdJoin(out, args, deps)
	case "leave", "quit":
		cmdLeave(out, args, deps)
	case "move", "tp":
		cmdMove(out, args, deps)
	case "sneak":
		cmdSneak(out, args, deps)
	case "hold":
		cmdHold(out, args, deps)
	case "slot":
		cmdSlot(out, args, deps)
	case "use":
		cmdUse(out, args, deps)
	case "hurt":
		cmdHurt(out, args, deps)
	case "setblock":
		cmdSetBlock(out, args, deps)
	case "block":
		cmdBlock(out, args, deps)
	case "seats":
		cmdSeats(out, deps)
	case "who":
		cmdWho(out, deps)
	case "inbox":
		cmdInbox(out, args, deps)
	case "tick":
		cmdTick(out, deps)
	case "save":
		cmdSave(out, deps)
	default:
		msgf(out, "unknown command %q, type help for the command list", cmd)
	}
	return true
}

// --- Helpers ---

func msg(out io.Writer, s string) {
	fmt.Fprintln(out, s)
}

func msgf(out io.Writer, format string, a ...any) {
	msg(out, fmt.Sprintf(format, a...))
}

func findPlayer(out io.Writer, name string, deps *Deps) (world.Player, bool) {
	p, ok := deps.World.PlayerByName(name)
	if !ok {
		msgf(out, "no player named %q", name)
	}
	return p, ok
}

func parseBlockPos(args []string) (cube.Pos, error) {
	if len(args) < 3 {
		return cube.Pos{0, 0, 0}, fmt.Errorf("need x y z")
	}
	var v [3]int
	for i := range v {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return cube.Pos{0, 0, 0}, fmt.Errorf("bad coordinate %q", args[i])
		}
		v[i] = n
	}
	return cube.Pos{v[0], v[1], v[2]}, nil
}

func parseVec3(args []string) (mgl64.Vec3, error) {
	if len(args) < 3 {
		return mgl64.Vec3{0, 0, 0}, fmt.Errorf("need x y z")
	}
	var v [3]float64
	for i := range v {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return mgl64.Vec3{0, 0, 0}, fmt.Errorf("bad coordinate %q", args[i])
		}
		v[i] = f
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

// --- Commands ---

func cmdHelp(out io.Writer) {
	msg(out, "=== console commands ===")
	msg(out, "join <name> [dim x y z]      add a player (default spawn point)")
	msg(out, "leave <name>                 remove a player")
	msg(out, "move <name> x y z [air]      teleport; air leaves the player airborne")
	msg(out, "sneak <name> on|off          toggle sneaking")
	msg(out, "hold <name> <item> [count]   put an item in the selected slot")
	msg(out, "slot <name> <n>              select hotbar slot n (0-8)")
	msg(out, "use <name> x y z <face>      use the held item on a block face")
	msg(out, "hurt <name> <amount>         damage a player")
	msg(out, "setblock <dim> x y z <type> [state=value ...]")
	msg(out, "block <dim> x y z            show a block")
	msg(out, "seats                        list tracked seats")
	msg(out, "who                          list players")
	msg(out, "inbox <name>                 show a player's messages")
	msg(out, "tick                         show the current tick")
	msg(out, "save                         write the world to the database")
}

func cmdJoin(out io.Writer, args []string, deps *Deps) {
	if len(args) != 1 && len(args) != 5 {
		msg(out, "usage: join <name> [dim x y z]")
		return
	}
	dim := deps.Config.World.DefaultDim
	pos := deps.Spawn
	if len(args) == 5 {
		dim = args[1]
		p, err := parseVec3(args[2:])
		if err != nil {
			msgf(out, "join: %v", err)
			return
		}
		pos = p
	}
	if _, err := deps.World.Join(args[0], dim, pos); err != nil {
		msgf(out, "join: %v", err)
		return
	}
	msgf(out, "%s joined %s at %s", args[0], dim, world.VecString(pos))
}

func cmdLeave(out io.Writer, args []string, deps *Deps) {
	if len(args) != 1 {
		msg(out, "usage: leave <name>")
		return
	}
	p, ok := findPlayer(out, args[0], deps)
	if !ok {
		return
	}
	deps.World.Leave(p.ID)
	msgf(out, "%s left", p.Name)
}

func cmdMove(out io.Writer, args []string, deps *Deps) {
	if len(args) != 4 && len(args) != 5 {
		msg(out, "usage: move <name> x y z [air]")
		return
	}
	p, ok := findPlayer(out, args[0], deps)
	if !ok {
		return
	}
	pos, err := parseVec3(args[1:4])
	if err != nil {
		msgf(out, "move: %v", err)
		return
	}
	deps.World.Teleport(p.ID, p.Dimension, pos)
	airborne := len(args) == 5 && strings.EqualFold(args[4], "air")
	deps.World.SetOnGround(p.ID, !airborne)
	msgf(out, "%s moved to %s (on ground: %t)", p.Name, world.VecString(pos), !airborne)
}

func cmdSneak(out io.Writer, args []string, deps *Deps) {
	if len(args) != 2 {
		msg(out, "usage: sneak <name> on|off")
		return
	}
	p, ok := findPlayer(out, args[0], deps)
	if !ok {
		return
	}
	var on bool
	switch strings.ToLower(args[1]) {
	case "on", "true", "1":
		on = true
	case "off", "false", "0":
	default:
		msg(out, "usage: sneak <name> on|off")
		return
	}
	deps.World.SetSneaking(p.ID, on)
	msgf(out, "%s sneaking: %t", p.Name, on)
}

func cmdHold(out io.Writer, args []string, deps *Deps) {
	if len(args) != 2 && len(args) != 3 {
		msg(out, "usage: hold <name> <item> [count]")
		return
	}
	p, ok := findPlayer(out, args[0], deps)
	if !ok {
		return
	}
	count := 1
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 0 {
			msgf(out, "hold: bad count %q", args[2])
			return
		}
		count = n
	}
	stack := component.ItemStack{TypeID: args[1], Count: count}
	if count == 0 {
		stack = component.ItemStack{}
	}
	deps.World.Hold(p.ID, stack)
	msgf(out, "%s holds %d x %s", p.Name, count, args[1])
}

func cmdSlot(out io.Writer, args []string, deps *Deps) {
	if len(args) != 2 {
		msg(out, "usage: slot <name> <n>")
		return
	}
	p, ok := findPlayer(out, args[0], deps)
	if !ok {
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || !deps.World.SelectSlot(p.ID, n) {
		msgf(out, "slot: bad slot %q, want 0-%d", args[1], component.HotbarSize-1)
		return
	}
	p, _ = deps.World.Player(p.ID)
	held := p.Held.TypeID
	if held == "" {
		held = "nothing"
	}
	msgf(out, "%s selected slot %d, holding %s", p.Name, n, held)
}

func cmdUse(out io.Writer, args []string, deps *Deps) {
	if len(args) != 5 {
		msg(out, "usage: use <name> x y z <face>")
		return
	}
	p, ok := findPlayer(out, args[0], deps)
	if !ok {
		return
	}
	pos, err := parseBlockPos(args[1:4])
	if err != nil {
		msgf(out, "use: %v", err)
		return
	}
	face, ok := world.ParseFace(args[4])
	if !ok {
		msgf(out, "use: bad face %q (down, up, north, south, west, east)", args[4])
		return
	}
	target := fmt.Sprintf("%s %s face", world.PosString(pos), world.FaceName(face))
	if deps.World.UseItemOn(p.ID, pos, face) {
		msgf(out, "%s used %s on %s: default action ran", p.Name, p.Held.TypeID, target)
		return
	}
	msgf(out, "%s used %s on %s: default action suppressed", p.Name, p.Held.TypeID, target)
}

func cmdHurt(out io.Writer, args []string, deps *Deps) {
	if len(args) != 2 {
		msg(out, "usage: hurt <name> <amount>")
		return
	}
	p, ok := findPlayer(out, args[0], deps)
	if !ok {
		return
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil || amount <= 0 {
		msgf(out, "hurt: bad amount %q", args[1])
		return
	}
	deps.World.Damage(p.ID, amount)
	p, _ = deps.World.Player(p.ID)
	msgf(out, "%s took %d damage (health %d)", p.Name, amount, p.Health)
}

func cmdSetBlock(out io.Writer, args []string, deps *Deps) {
	if len(args) < 5 {
		msg(out, "usage: setblock <dim> x y z <type> [state=value ...]")
		return
	}
	pos, err := parseBlockPos(args[1:4])
	if err != nil {
		msgf(out, "setblock: %v", err)
		return
	}
	block := world.Permutation{TypeID: args[4]}
	for _, kv := range args[5:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			msgf(out, "setblock: bad state %q, want name=value", kv)
			return
		}
		block = block.WithState(k, v)
	}
	if !deps.World.SetBlock(args[0], pos, block) {
		msgf(out, "setblock: unknown dimension %q", args[0])
		return
	}
	msgf(out, "%s %s = %s", args[0], world.PosString(pos), block)
}

func cmdBlock(out io.Writer, args []string, deps *Deps) {
	if len(args) != 4 {
		msg(out, "usage: block <dim> x y z")
		return
	}
	pos, err := parseBlockPos(args[1:])
	if err != nil {
		msgf(out, "block: %v", err)
		return
	}
	msgf(out, "%s %s = %s", args[0], world.PosString(pos), deps.World.Block(args[0], pos))
}

func cmdSeats(out io.Writer, deps *Deps) {
	seats := deps.Chairs.Seats()
	msgf(out, "%d seat(s)", len(seats))
	for _, s := range seats {
		rider := "-"
		if p, ok := deps.World.Player(s.Rider); ok {
			rider = p.Name
		}
		msgf(out, "  %s %s %s yaw=%.0f rider=%s %s", s.ID, s.Dimension, world.PosString(s.Anchor), s.Yaw, rider, s.State())
	}
}

func cmdWho(out io.Writer, deps *Deps) {
	msgf(out, "%d player(s)", deps.World.PlayerCount())
	deps.World.AllPlayers(func(p world.Player) {
		msgf(out, "  %s %s %s sneaking=%t ground=%t hp=%d holding=%s",
			p.Name, p.Dimension, world.VecString(p.Pos), p.Sneaking, p.OnGround, p.Health, p.Held.TypeID)
	})
}

func cmdInbox(out io.Writer, args []string, deps *Deps) {
	if len(args) != 1 {
		msg(out, "usage: inbox <name>")
		return
	}
	p, ok := findPlayer(out, args[0], deps)
	if !ok {
		return
	}
	lines := deps.World.Inbox(p.ID)
	msgf(out, "%d message(s) for %s", len(lines), p.Name)
	for _, l := range lines {
		msg(out, "  "+l)
	}
}

func cmdTick(out io.Writer, deps *Deps) {
	msgf(out, "tick %d: %d entities, %d players, %d seats, %d scheduled tasks",
		deps.Sched.CurrentTick(), deps.World.EntityCount(), deps.World.PlayerCount(),
		deps.Chairs.Count(), deps.Sched.Pending())
}

func cmdSave(out io.Writer, deps *Deps) {
	if deps.Save == nil {
		msg(out, "save: persistence is disabled")
		return
	}
	if err := deps.Save(); err != nil {
		deps.Log.Error("console save failed", zap.Error(err))
		msgf(out, "save failed: %v", err)
		return
	}
	msg(out, "world saved")
}
