package world

import (
	"fmt"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

var faceNames = map[string]cube.Face{
	"down":  cube.FaceDown,
	"up":    cube.FaceUp,
	"north": cube.FaceNorth,
	"south": cube.FaceSouth,
	"west":  cube.FaceWest,
	"east":  cube.FaceEast,
}

// ParseFace accepts the lowercase face names, case-insensitively.
func ParseFace(s string) (cube.Face, bool) {
	f, ok := faceNames[strings.ToLower(s)]
	return f, ok
}

func FaceName(f cube.Face) string {
	for name, face := range faceNames {
		if face == f {
			return name
		}
	}
	return "unknown"
}

// PosString formats a block position as (x, y, z).
func PosString(p cube.Pos) string {
	return fmt.Sprintf("(%d, %d, %d)", p.X(), p.Y(), p.Z())
}

// VecString formats a world position with two decimals per axis.
func VecString(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X(), v.Y(), v.Z())
}
