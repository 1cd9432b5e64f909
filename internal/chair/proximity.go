package chair

import "github.com/go-gl/mathgl/mgl64"

// WithinRadius reports whether a and b are at most r apart (Euclidean, inclusive).
func WithinRadius(a, b mgl64.Vec3, r float64) bool {
	return a.Sub(b).Len() <= r
}
