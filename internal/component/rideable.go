package component

import "github.com/seatcraft/server/internal/core/ecs"

// Rideable marks an entity that carries riders.
type Rideable struct {
	Seats  int // max riders
	Riders []ecs.EntityID
}

// Riding links a rider to its vehicle.
type Riding struct {
	Vehicle ecs.EntityID
}
