package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/seatcraft/server/internal/core/ecs"
)

// chunkSize is the column width of the entity grid. A 3x3 neighbourhood covers
// any query radius up to chunkSize blocks.
const chunkSize = 16

type cellKey struct {
	dim    string
	cx, cz int
}

func toCell(v float64) int {
	return int(math.Floor(v / chunkSize))
}

// entityGrid buckets entities by chunk column so radius queries only look at
// nearby columns. Accessed only from the game loop goroutine, no locks.
type entityGrid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
}

func newEntityGrid() *entityGrid {
	return &entityGrid{cells: make(map[cellKey]map[ecs.EntityID]struct{})}
}

func (g *entityGrid) key(dim string, p mgl64.Vec3) cellKey {
	return cellKey{dim: dim, cx: toCell(p.X()), cz: toCell(p.Z())}
}

func (g *entityGrid) add(id ecs.EntityID, dim string, p mgl64.Vec3) {
	k := g.key(dim, p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

func (g *entityGrid) remove(id ecs.EntityID, dim string, p mgl64.Vec3) {
	k := g.key(dim, p)
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

func (g *entityGrid) move(id ecs.EntityID, oldDim string, oldPos mgl64.Vec3, newDim string, newPos mgl64.Vec3) {
	if g.key(oldDim, oldPos) == g.key(newDim, newPos) {
		return
	}
	g.remove(id, oldDim, oldPos)
	g.add(id, newDim, newPos)
}

// nearby returns the ids in the 3x3 columns around p. Callers filter by distance.
func (g *entityGrid) nearby(dim string, p mgl64.Vec3) []ecs.EntityID {
	cx, cz := toCell(p.X()), toCell(p.Z())
	var out []ecs.EntityID
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			for id := range g.cells[cellKey{dim: dim, cx: cx + dx, cz: cz + dz}] {
				out = append(out, id)
			}
		}
	}
	return out
}
