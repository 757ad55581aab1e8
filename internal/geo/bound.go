package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultPrecision is the coordinate rounding, in CRS units, used to decide
// whether two vertices are the same network node.
const DefaultPrecision = 0.001

// NodeKey is a vertex coordinate quantised to a fixed precision.
type NodeKey struct {
	X int64
	Y int64
}

// Quantize maps p onto the grid of the given precision. Two points share a key
// iff they agree after rounding.
func Quantize(p orb.Point, precision float64) NodeKey {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return NodeKey{
		X: int64(math.Round(p[0] / precision)),
		Y: int64(math.Round(p[1] / precision)),
	}
}

// SquareAround returns the axis-aligned square of half-size r centred on p.
func SquareAround(p orb.Point, r float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{p[0] - r, p[1] - r},
		Max: orb.Point{p[0] + r, p[1] + r},
	}
}

// FarthestCornerDistance returns the distance from p to the corner of b that
// is farthest from it. Any geometry inside b is no farther from p than this.
func FarthestCornerDistance(p orb.Point, b orb.Bound) float64 {
	dx := math.Max(math.Abs(p[0]-b.Min[0]), math.Abs(p[0]-b.Max[0]))
	dy := math.Max(math.Abs(p[1]-b.Min[1]), math.Abs(p[1]-b.Max[1]))
	return math.Hypot(dx, dy)
}

// IsFinite reports whether v is a usable finite bound.
func IsFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
