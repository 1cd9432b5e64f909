package system

import (
	"io"
	"time"

	coresys "github.com/seatcraft/server/internal/core/system"
	"github.com/seatcraft/server/internal/handler"
	"go.uber.org/zap"
)

// InputSystem drains operator console lines and runs them as commands.
// Phase 0 (Input).
type InputSystem struct {
	lines      <-chan string
	out        io.Writer
	deps       *handler.Deps
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(lines <-chan string, out io.Writer, deps *handler.Deps, maxPerTick int, log *zap.Logger) *InputSystem {
	if maxPerTick < 1 {
		maxPerTick = 1
	}
	return &InputSystem{
		lines:      lines,
		out:        out,
		deps:       deps,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Update runs at most maxPerTick queued lines; the rest wait for later ticks.
func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case line, ok := <-s.lines:
			if !ok {
				return
			}
			s.run(line)
		default:
			return
		}
	}
}

func (s *InputSystem) run(line string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("console command panicked", zap.String("line", line), zap.Any("panic", r))
		}
	}()
	handler.HandleCommand(s.out, line, s.deps)
}
