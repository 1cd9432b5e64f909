package handler

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/seatcraft/server/internal/chair"
	"github.com/seatcraft/server/internal/config"
	"github.com/seatcraft/server/internal/scheduler"
	"github.com/seatcraft/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into the console commands.
type Deps struct {
	Config *config.Config
	Log    *zap.Logger
	World  *world.State
	Sched  *scheduler.Scheduler
	Chairs *chair.Manager
	Spawn  mgl64.Vec3     // where join puts players without explicit coordinates
	Save   func() error // nil when persistence is disabled
}
